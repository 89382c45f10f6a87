package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	Md "github.com/maroda/madrigal/display"
	Mp "github.com/maroda/madrigal/plugin"
	"github.com/maroda/madrigal/sheets"
)

// NewSheetsCommand lists the registered sheets.
func NewSheetsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "List the sheets that can be played",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range sheets.Names() {
				s, err := sheets.Lookup(name)
				if err != nil {
					return err
				}
				cps := "-"
				if !s.CPS.IsZero() {
					cps = s.CPS.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, cps, s.About)
			}
			return w.Flush()
		},
	}
}

// NewPortsCommand lists MIDI output ports by index, for midiPort.
func NewPortsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List MIDI output ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports := Mp.MIDIPorts()
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no MIDI output ports")
				return nil
			}
			for i, p := range ports {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i, p)
			}
			return nil
		},
	}
}

// NewVersionCommand prints the build version and the available outputs.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "madrigal %s\noutputs: %s\n",
				Md.Version, strings.Join(Mp.OutputNames(), ", "))
		},
	}
}
