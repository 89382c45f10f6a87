package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	Mpat "github.com/maroda/madrigal/pattern"
	"github.com/maroda/madrigal/sheets"
)

// QueryOptions are the flags of the query command
type QueryOptions struct {
	From int64
	To   int64
	JSON bool
}

// QueryEvent is one onset as printed by query --json
type QueryEvent struct {
	Begin  string         `json:"begin"`
	End    string         `json:"end"`
	Params map[string]any `json:"params"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [sheet]",
		Short: "Print a sheet's events without playing it",
		Long: `Print every onset of a sheet over cycles [from, to), one per line.

Nothing is scheduled or sent anywhere, which makes query the quickest
way to check what a sheet will play.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := sheets.CheatSheet
			if len(args) == 1 {
				name = args[0]
			} else if rootOpts.Config != "" {
				c, err := loadConfig(rootOpts)
				if err != nil {
					return err
				}
				name = c.Sheet
			}
			return runQuery(cmd, opts, name)
		},
	}

	cmd.Flags().Int64Var(&opts.From, "from", 0, "first cycle")
	cmd.Flags().Int64Var(&opts.To, "to", 1, "cycle to stop before")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print JSON instead of text")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, name string) error {
	if opts.To <= opts.From {
		return fmt.Errorf("empty range: --to %d must be after --from %d", opts.To, opts.From)
	}

	sheet, err := sheets.Lookup(name)
	if err != nil {
		return err
	}
	p, err := sheet.Build(nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !opts.JSON {
		for _, line := range sheets.Render(p, opts.From, opts.To) {
			fmt.Fprintln(out, line)
		}
		return nil
	}

	events := []QueryEvent{}
	for _, e := range p.QueryCycles(opts.From, opts.To) {
		if !e.HasOnset() {
			continue
		}
		span := e.WholeOrPart()
		events = append(events, QueryEvent{
			Begin:  span.Begin.String(),
			End:    span.End.String(),
			Params: Mpat.Payload(e.Value),
		})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}
