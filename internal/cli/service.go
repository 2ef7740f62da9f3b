package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/offhours/internal/systemd"
)

var (
	servicePrint bool
	serviceForce bool
)

func init() {
	rootCmd.AddCommand(installServiceCmd)
	installServiceCmd.Flags().BoolVar(&servicePrint, "print", false, "Print the unit instead of writing it")
	installServiceCmd.Flags().BoolVar(&serviceForce, "force", false, "Replace an existing unit that differs")
}

var installServiceCmd = &cobra.Command{
	Use:   "install-service",
	Short: "Install a systemd user unit for the daemon",
	Long: "Writes ~/.config/systemd/user/offhours.service running 'offhours serve'.\n" +
		"Enable it with: systemctl --user enable --now offhours",
	RunE: runInstallService,
}

func runInstallService(cmd *cobra.Command, args []string) error {
	bin, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	o := systemd.Options{Binary: bin}
	if configPath != "" {
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return err
		}
		o.Config = abs
	}

	w := cmd.OutOrStdout()
	if servicePrint {
		fmt.Fprint(w, systemd.Template(o))
		return nil
	}

	path, err := systemd.UserUnitPath()
	if err != nil {
		return err
	}
	wrote, err := systemd.Install(path, o, serviceForce)
	if err != nil {
		return err
	}
	if !wrote {
		fmt.Fprintf(w, "Unit already up to date: %s\n", path)
		return nil
	}
	fmt.Fprintf(w, "Wrote %s\n", path)
	fmt.Fprintln(w, "Enable with: systemctl --user enable --now offhours")
	return nil
}
