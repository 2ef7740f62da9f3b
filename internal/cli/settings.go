package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/offhours/internal/settings"
)

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsInitCmd)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and write the settings store",
	Long:  "Reads and writes the key-value settings the decision engine evaluates.\nChanges apply to the next decision without a restart.",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print effective settings (stored values over defaults)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Validate and store one setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with every default key",
	Long:  "Creates the YAML settings file with all defaults. An existing file is left untouched.",
	RunE:  runSettingsInit,
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	stored, err := store.Values(cmd.Context())
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	effective := settings.Defaults()
	for k, v := range stored {
		effective[k] = v
	}

	w := cmd.OutOrStdout()
	if len(args) == 1 {
		key := args[0]
		v, ok := effective[key]
		if !ok {
			return fmt.Errorf("%w: %s", settings.ErrUnknownKey, key)
		}
		fmt.Fprintln(w, v)
		return nil
	}

	for _, k := range effective.Keys() {
		mark := ""
		if _, ok := stored[k]; !ok {
			mark = "  (default)"
		}
		fmt.Fprintf(w, "%s=%s%s\n", k, effective[k], mark)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Set(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], args[1])
	return nil
}

func runSettingsInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	fs, ok := store.(*settings.FileStore)
	if !ok {
		return fmt.Errorf("settings init needs a file store, got %q", cfg.Settings)
	}
	created, err := fs.WriteDefaults()
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	w := cmd.OutOrStdout()
	if !created {
		fmt.Fprintf(w, "Settings file already exists: %s\n", fs.Path())
		return nil
	}
	fmt.Fprintf(w, "Created %s\n", fs.Path())
	return nil
}
