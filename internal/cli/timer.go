package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pomofocus/backend/internal/config"
	"pomofocus/backend/internal/engine"
	"pomofocus/backend/internal/model"
	"pomofocus/backend/internal/tui"
)

// launchTimerFunc starts the terminal UI. Tests replace it.
var launchTimerFunc = launchTimer

func launchTimer(cfg model.SessionConfig, tick time.Duration) error {
	return tui.Run(cfg, engine.WithTickInterval(tick))
}

type timerOptions struct {
	Work       int
	Break      int
	Long       int
	Interval   int
	Auto       bool
	WorkSound  string
	BreakSound string
}

func newTimerCommand() *cobra.Command {
	var opts timerOptions

	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Run the Pomodoro timer",
		Long: `Run the Pomodoro timer in the terminal.

Keys: space start/pause, r reset, a add task, x complete the first open task, q quit.
Finished work sessions are credited to the first open task.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			timer, err := applyTimerFlags(cmd.Flags(), cfg.Timer, opts)
			if err != nil {
				return err
			}
			return launchTimerFunc(timer, cfg.TickInterval)
		},
	}

	cmd.Flags().IntVar(&opts.Work, "work", model.DefaultWorkMinutes, "Work session length in minutes")
	cmd.Flags().IntVar(&opts.Break, "break", model.DefaultShortBreakMinutes, "Short break length in minutes")
	cmd.Flags().IntVar(&opts.Long, "long", model.DefaultLongBreakMinutes, "Long break length in minutes")
	cmd.Flags().IntVar(&opts.Interval, "interval", model.DefaultLongBreakInterval, "Work sessions between long breaks")
	cmd.Flags().BoolVar(&opts.Auto, "auto", false, "Start the next phase automatically")
	cmd.Flags().StringVar(&opts.WorkSound, "work-sound", model.DefaultWorkSound, "Sound played when a break ends")
	cmd.Flags().StringVar(&opts.BreakSound, "break-sound", model.DefaultBreakSound, "Sound played when a work session ends")
	return cmd
}

// applyTimerFlags overrides base with every flag set on the command line.
func applyTimerFlags(flags *pflag.FlagSet, base model.SessionConfig, opts timerOptions) (model.SessionConfig, error) {
	cfg := base
	if flags.Changed("work") {
		cfg.WorkMinutes = opts.Work
	}
	if flags.Changed("break") {
		cfg.ShortBreakMinutes = opts.Break
	}
	if flags.Changed("long") {
		cfg.LongBreakMinutes = opts.Long
	}
	if flags.Changed("interval") {
		cfg.LongBreakInterval = opts.Interval
	}
	if flags.Changed("auto") {
		cfg.AutoAdvance = opts.Auto
	}
	if flags.Changed("work-sound") {
		cfg.WorkSound = opts.WorkSound
	}
	if flags.Changed("break-sound") {
		cfg.BreakSound = opts.BreakSound
	}

	for _, sound := range []string{cfg.WorkSound, cfg.BreakSound} {
		if sound != "" && !model.IsKnownSound(sound) {
			return model.SessionConfig{}, fmt.Errorf("unknown sound %q", sound)
		}
	}
	return cfg.Normalized(), nil
}
