package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/dicebot/internal/config"
	"github.com/cory-johannsen/dicebot/internal/dice"
	"github.com/cory-johannsen/dicebot/internal/observability"
)

type rollOptions struct {
	configPath string
	surface    int
	maxDice    int
	maxSurface int
	times      int
	seed       int64
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rollOptions{}
	cmd := &cobra.Command{
		Use:   "roll [order...]",
		Short: "Evaluate a dice order",
		Long: `Evaluate a dice order such as "3D6+2", "4d6k3", "b2 Spot Hidden" or "h D20"
and print the rendered roll.

  Example: roll --times 3 4d6k3 Strength`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoll(cmd, opts, strings.Join(args, " "))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "configuration file supplying dice limits")
	f.IntVar(&opts.surface, "surface", 0, "default surface number (overrides config)")
	f.IntVar(&opts.maxDice, "max-dice", 0, "maximum dice per term (overrides config)")
	f.IntVar(&opts.maxSurface, "max-surface", 0, "maximum surface number (overrides config)")
	f.IntVar(&opts.times, "times", 1, "number of times to roll the order")
	f.Int64Var(&opts.seed, "seed", 0, "seed for a reproducible roll")
	f.BoolVar(&opts.verbose, "verbose", false, "log each evaluation to stderr")
	return cmd
}

func runRoll(cmd *cobra.Command, opts *rollOptions, order string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	limits := dice.Limits{
		DefaultSurface:   cfg.Dice.DefaultSurface,
		MaxDiceNumber:    cfg.Dice.MaxDiceNumber,
		MaxSurfaceNumber: cfg.Dice.MaxSurfaceNumber,
	}
	if opts.surface > 0 {
		limits.DefaultSurface = opts.surface
	}
	if opts.maxDice > 0 {
		limits.MaxDiceNumber = opts.maxDice
	}
	if opts.maxSurface > 0 {
		limits.MaxSurfaceNumber = opts.maxSurface
	}
	if opts.times < 1 || opts.times > cfg.Dice.MaxRepeat {
		return fmt.Errorf("--times must be between 1 and %d", cfg.Dice.MaxRepeat)
	}

	logger, err := observability.NewCLILogger(opts.verbose, "roll")
	if err != nil {
		return err
	}
	defer logger.Sync()

	src := dice.NewCryptoSource()
	if cmd.Flags().Changed("seed") {
		src = dice.NewSeededSource(opts.seed)
	}

	results, err := dice.NewLoggedRoller(src, logger).Repeat(order, limits, opts.times)
	if err != nil {
		return fmt.Errorf("rolling %q: %w", order, err)
	}

	out := cmd.OutOrStdout()
	for _, e := range results {
		if e.Reason != "" {
			fmt.Fprintf(out, "%s: %s\n", e.Reason, e.Text())
			continue
		}
		fmt.Fprintln(out, e.Text())
	}
	return nil
}
