package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/offhours/internal/bridge"
	"github.com/ppiankov/offhours/internal/client"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/policy"
)

var (
	decideFeature string
	decideAt      string
	decideRemote  string
	decideFormat  string
)

func init() {
	rootCmd.AddCommand(decideCmd)
	decideCmd.Flags().StringVar(&decideFeature, "feature", "calls", "Feature chain (calls|fallback|dnd|sms)")
	decideCmd.Flags().StringVar(&decideAt, "at", "", "RFC 3339 instant to evaluate (default now)")
	decideCmd.Flags().StringVar(&decideRemote, "remote", "", "Ask a running daemon at this gRPC address instead")
	decideCmd.Flags().StringVarP(&decideFormat, "format", "f", "text", "Output format (text|json)")
}

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Evaluate a decision against the current settings",
	Long: "Reads the settings store and prints whether the feature would block\n" +
		"at the given time, and why. Unreadable settings yield allow(error_fallback).",
	RunE: runDecide,
}

func runDecide(cmd *cobra.Command, args []string) error {
	req := bridge.DecideRequest{Feature: decideFeature}
	if decideAt != "" {
		t, err := time.Parse(time.RFC3339, decideAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		req.At = t
	}

	d, err := decide(cmd.Context(), req)
	if err != nil {
		return err
	}

	if decideFormat == "json" {
		out, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s(%s)  feature=%s  at=%s\n", d.Outcome, d.Reason, d.Feature, d.At.Format(time.RFC3339))
	if d.Error != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  error: %s\n", d.Error)
	}
	return nil
}

func decide(ctx context.Context, req bridge.DecideRequest) (*bridge.Decision, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if decideRemote != "" {
		c, err := client.New(decideRemote)
		if err != nil {
			return nil, err
		}
		defer c.Close()
		return c.Decide(ctx, req)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	f, ok := model.ParseFeature(req.Feature)
	if !ok {
		return nil, fmt.Errorf("unknown feature %q", req.Feature)
	}
	engine := policy.NewEngine(store)
	at := req.At
	if at.IsZero() {
		at = engine.Now()
	}
	ev := engine.EvaluateAt(ctx, f, at)
	d := bridge.DecisionOf(ev.Decision)
	d.Feature = string(f)
	d.At = ev.At
	if ev.Err != nil {
		d.Error = ev.Err.Error()
	}
	return &d, nil
}
