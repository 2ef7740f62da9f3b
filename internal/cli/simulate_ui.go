package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/offhours/internal/app"
	"github.com/ppiankov/offhours/internal/blocker"
	"github.com/ppiankov/offhours/internal/bridge"
	"github.com/ppiankov/offhours/internal/host"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/policy"
	"github.com/ppiankov/offhours/internal/uitree"
)

var (
	simAt             string
	simDefaultHandler string
	simProfiles       []string
	simFormat         string
)

func init() {
	rootCmd.AddCommand(simulateUICmd)
	simulateUICmd.Flags().StringVar(&simAt, "at", "", "RFC 3339 instant for the policy decision (default now)")
	simulateUICmd.Flags().StringVar(&simDefaultHandler, "default-handler", "unknown", "Default call-handler answer (true|false|unknown)")
	simulateUICmd.Flags().StringSliceVar(&simProfiles, "profile", nil, "Heuristic profiles to apply (overrides config)")
	simulateUICmd.Flags().StringVarP(&simFormat, "format", "f", "text", "Output format (text|json)")
}

var simulateUICmd = &cobra.Command{
	Use:   "simulate-ui <screen-file>",
	Short: "Run the accessibility fallback against a recorded screen",
	Long: "Loads a recorded UI-state event (YAML or JSON) and runs the fallback\n" +
		"blocker against it with the configured settings, heuristics and retry\n" +
		"policy. Prints the session outcome and the actions it would perform.",
	Args: cobra.ExactArgs(1),
	RunE: runSimulateUI,
}

type simulation struct {
	Outcome  *bridge.Outcome  `json:"outcome,omitempty"`
	Decision *bridge.Decision `json:"decision,omitempty"`
	Commands []host.Command   `json:"commands"`
}

func runSimulateUI(cmd *cobra.Command, args []string) error {
	screen, err := uitree.LoadScreenFile(args[0])
	if err != nil {
		return err
	}
	handler, err := parseTristate(simDefaultHandler)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("profile") {
		cfg.Profiles = simProfiles
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	h, err := app.BuildHeuristics(cfg.Heuristics, cfg.Profiles)
	if err != nil {
		return err
	}
	engineOpts := []policy.Option{}
	if simAt != "" {
		at, err := time.Parse(time.RFC3339, simAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		engineOpts = append(engineOpts, policy.WithClock(func() time.Time { return at }))
	}

	remote := host.NewRemote()
	remote.ReportDefaultHandler(handler)
	remote.ReportRoot(screen.Root)

	done := make(chan blocker.Outcome, 1)
	b := blocker.New(remote, policy.NewEngine(store, engineOpts...), h, cfg.Blocker,
		blocker.WithOutcomeHook(func(o blocker.Outcome) { done <- o }))

	var sim simulation
	state := b.OnUIEvent(cmd.Context(), screen.Event())
	wait := time.Duration(cfg.Blocker.MaxAttempts)*cfg.Blocker.Backoff + time.Second
	if o, ok := awaitOutcome(done, state, wait); ok {
		d := bridge.DecisionOf(o.Decision)
		sim.Outcome = bridge.OutcomeOf(o)
		sim.Decision = &d
	}
	b.Reset()
	sim.Commands = remote.Drain()

	return printSimulation(cmd, sim)
}

// awaitOutcome collects the session outcome. An Idle state after the event
// means the outcome, if any, was already emitted.
func awaitOutcome(done <-chan blocker.Outcome, state blocker.State, wait time.Duration) (blocker.Outcome, bool) {
	if state == blocker.Idle {
		select {
		case o := <-done:
			return o, true
		default:
			return blocker.Outcome{}, false
		}
	}
	select {
	case o := <-done:
		return o, true
	case <-time.After(wait):
		return blocker.Outcome{}, false
	}
}

func printSimulation(cmd *cobra.Command, sim simulation) error {
	w := cmd.OutOrStdout()
	if simFormat == "json" {
		out, err := json.MarshalIndent(sim, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(out))
		return nil
	}

	if sim.Outcome == nil {
		fmt.Fprintln(w, "no session: not a call screen, or the app is the default call handler")
		return nil
	}
	o := sim.Outcome
	fmt.Fprintf(w, "%s after %d attempt(s)  decision=%s(%s)\n", o.State, o.Attempts, sim.Decision.Outcome, sim.Decision.Reason)
	if o.Match != "" {
		fmt.Fprintf(w, "  matched %s at %s\n", o.Match, o.Path)
	}
	for _, c := range sim.Commands {
		switch c.Kind {
		case host.CommandActivate:
			fmt.Fprintf(w, "  %s %s (%s)\n", c.Kind, c.Path, c.Mode)
		default:
			fmt.Fprintf(w, "  %s\n", c.Kind)
		}
	}
	return nil
}

func parseTristate(s string) (model.Tristate, error) {
	switch s {
	case "true":
		return model.True, nil
	case "false":
		return model.False, nil
	case "unknown", "":
		return model.Unknown, nil
	}
	return model.Unknown, fmt.Errorf("invalid tristate %q (want true|false|unknown)", s)
}
