package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/offhours/internal/audit"
)

var (
	auditKind  string
	auditSince time.Duration
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditSummaryCmd)
	auditSummaryCmd.Flags().StringVar(&auditKind, "kind", "", "Only count one event kind (call|message|blocker|dnd)")
	auditSummaryCmd.Flags().DurationVar(&auditSince, "since", 0, "Only count entries newer than this (e.g. 24h)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the decision journal",
	Long:  "Verifies and summarizes the hash-chained decision journal.\nThe path defaults to audit_log from the config file.",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Check the journal hash chain",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditVerify,
}

var auditSummaryCmd = &cobra.Command{
	Use:   "summary [path]",
	Short: "Count decisions by outcome, kind and reason",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditSummary,
}

func auditPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.AuditLog == "" {
		return "", fmt.Errorf("no audit log path given and audit_log is not configured")
	}
	return cfg.AuditLog, nil
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	path, err := auditPath(args)
	if err != nil {
		return err
	}
	result := audit.Verify(path)
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	if !result.Valid {
		return fmt.Errorf("audit chain broken at line %d", result.ErrorLine)
	}
	return nil
}

func runAuditSummary(cmd *cobra.Command, args []string) error {
	path, err := auditPath(args)
	if err != nil {
		return err
	}
	f := audit.Filter{Kind: auditKind}
	if auditSince > 0 {
		f.From = time.Now().Add(-auditSince)
	}
	s, err := audit.Summarize(path, f)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%d entries  blocked=%d allowed=%d declined=%d gave_up=%d\n", s.Total, s.Blocked, s.Allowed, s.Declined, s.GaveUp)
	if s.Total > 0 {
		fmt.Fprintf(w, "  from %s to %s\n", s.First, s.Last)
	}
	printCounts(cmd, "by kind", s.ByKind)
	printCounts(cmd, "by reason", s.ByReason)
	return nil
}

func printCounts(cmd *cobra.Command, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-16s %d\n", k, counts[k])
	}
}
