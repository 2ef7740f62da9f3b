package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/offhours/internal/profile"
)

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect heuristic profiles",
	Long:  "List and inspect vendor and language profiles that extend the decline-button heuristics.",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show what patterns a profile adds",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

func runProfileList(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	names := profile.List()
	if len(names) == 0 {
		fmt.Fprintln(w, "No profiles available.")
		return nil
	}

	fmt.Fprintln(w, "Available profiles:")
	for _, name := range names {
		p, err := profile.Load(name)
		if err != nil {
			fmt.Fprintf(w, "  %-15s (error loading: %v)\n", name, err)
			continue
		}
		fmt.Fprintf(w, "  %-15s %s\n", name, p.Description)
	}
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	name := args[0]
	p, err := profile.Load(name)
	if err != nil {
		return fmt.Errorf("failed to load profile %q: %w", name, err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Profile: %s (%s)\n", p.Name, p.Description)

	h := p.Heuristics
	for _, sec := range []struct {
		title string
		items []string
	}{
		{"Labels", h.Labels},
		{"Descriptions", h.Descriptions},
		{"Identifiers", h.Identifiers},
		{"Screen packages", h.ScreenPackages},
		{"Screen package fragments", h.ScreenPackageFragments},
		{"Screen class fragments", h.ScreenClassFragments},
	} {
		if len(sec.items) == 0 {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s:\n", sec.title)
		for _, s := range sec.items {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "To apply, list it under profiles: in the config file, or:")
	fmt.Fprintf(w, "  offhours simulate-ui --profile %s <screen-file>\n", name)
	return nil
}
