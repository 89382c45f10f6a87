package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	Md "github.com/maroda/madrigal/display"
	Mo "github.com/maroda/madrigal/obvy"
	Mp "github.com/maroda/madrigal/plugin"
	Mpat "github.com/maroda/madrigal/pattern"
	Ms "github.com/maroda/madrigal/server"
	"github.com/maroda/madrigal/sheets"
)

// PlayOptions are the flags of the play command
type PlayOptions struct {
	Headless bool
	Addr     string
	CPS      string
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{}

	cmd := &cobra.Command{
		Use:   "play [sheet]",
		Short: "Play a sheet on the configured outputs",
		Long: `Play a sheet on the configured outputs.

The sheet comes from the argument, the config file or MADRIGAL_SHEET,
in that order, and defaults to the cheat sheet. With a terminal the
transport monitor takes over the screen: space pauses, s stops,
+ and - move the tempo, arrows move sliders, escape quits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				c.Sheet = args[0]
			}
			if opts.CPS != "" {
				c.CPS, c.CPM = opts.CPS, 0
			}
			if opts.Addr != "" {
				c.HTTPAddr = opts.Addr
			}
			return runPlay(cmd.Context(), rootOpts, opts, c, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Headless, "headless", false, "no terminal monitor, run until interrupted")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "serve the HTTP API and websocket stream on this address")
	cmd.Flags().StringVar(&opts.CPS, "cps", "", "cycles per second, \"1/2\" or \"0.5\"")

	return cmd
}

// loadConfig reads --config when given, then applies the environment
func loadConfig(rootOpts *RootOptions) (*Ms.ConfigFile, error) {
	c := &Ms.ConfigFile{}
	if rootOpts.Config != "" {
		var err error
		c, err = Ms.LoadConfigFileName(rootOpts.Config)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", rootOpts.Config, err)
		}
	}
	c.ApplyEnv()
	if c.Sheet == "" {
		c.Sheet = sheets.CheatSheet
	}
	return c, c.Validate()
}

// prepareSheet builds the configured sheet and fills in the tempo and
// sample maps it asks for when the config leaves them out
func prepareSheet(c *Ms.ConfigFile, bank *Mpat.SliderBank) (Mpat.ControlPattern, error) {
	sheet, err := sheets.Lookup(c.Sheet)
	if err != nil {
		return Mpat.ControlPattern{}, err
	}
	p, err := sheet.Build(bank)
	if err != nil {
		return Mpat.ControlPattern{}, err
	}

	if c.CPS == "" && c.CPM == 0 && !sheet.CPS.IsZero() {
		c.CPS = sheet.CPS.String()
	}
	if len(c.Samples) == 0 {
		c.Samples = sheet.Samples
	}
	return p, nil
}

func runPlay(ctx context.Context, rootOpts *RootOptions, opts *PlayOptions, c *Ms.ConfigFile, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bank := Mpat.NewSliderBank()
	p, err := prepareSheet(c, bank)
	if err != nil {
		return err
	}

	shutdown, err := Mo.InitTelemetry(c.Telemetry)
	if err != nil {
		slog.Warn("Telemetry disabled", slog.Any("Error", err))
	}
	defer shutdown()

	// The monitor owns the terminal, so trigger lines only go to a log file
	logWriter := cmd.OutOrStdout()
	if !opts.Headless {
		logWriter = io.Discard
		if rootOpts.LogFile != "" {
			logWriter = rootOpts.logOut
		} else {
			slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		}
	}

	hub := Md.NewHub(0)
	engine, err := Ms.NewEngine(c, Ms.EngineOptions{
		LogWriter: logWriter,
		Outputs:   []Mp.OutputAdapter{hub},
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			slog.Error("Engine did not close cleanly", slog.Any("Error", err))
		}
	}()

	vc := Md.ViewConfig{
		Engine:  engine,
		Sliders: bank,
		Hub:     hub,
		Sheet:   c.Sheet,
	}
	if !opts.Headless {
		vc.Screen, err = Md.GetTTY()
		if err != nil {
			return fmt.Errorf("no terminal, try --headless: %w", err)
		}
	}
	view, err := Md.NewView(vc)
	if err != nil {
		if vc.Screen != nil {
			vc.Screen.Fini()
		}
		return err
	}

	if err := engine.Play(p); err != nil {
		if vc.Screen != nil {
			vc.Screen.Fini()
		}
		return err
	}
	slog.Info("Playing",
		slog.String("sheet", c.Sheet),
		slog.String("cps", engine.State().CPS),
		slog.Bool("headless", opts.Headless))

	go func() {
		select {
		case <-ctx.Done():
			view.Quit()
		case <-view.Done():
		}
	}()

	return view.Run(c.HTTPAddr)
}
