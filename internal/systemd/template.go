// Package systemd renders a user unit that keeps the offhours daemon running.
package systemd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// UnitName is the installed unit file name.
const UnitName = "offhours.service"

// Options fill in the unit template.
type Options struct {
	Binary string // absolute path to the offhours executable
	Config string // optional --config argument
}

// Template returns the user unit for the daemon.
func Template(o Options) string {
	exec := o.Binary + " serve"
	if o.Config != "" {
		exec += " --config " + o.Config
	}
	return fmt.Sprintf(`[Unit]
Description=offhours call screening daemon
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=%s
Restart=on-failure
RestartSec=2
NoNewPrivileges=true
PrivateTmp=true

[Install]
WantedBy=default.target
`, exec)
}

// UserUnitPath returns ~/.config/systemd/user/offhours.service.
func UserUnitPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "systemd", "user", UnitName), nil
}

// Install writes the unit to path. An existing identical file is left alone;
// a different one is replaced only when force is set.
func Install(path string, o Options, force bool) (bool, error) {
	if !filepath.IsAbs(o.Binary) || strings.ContainsAny(o.Binary, " \t\n") {
		return false, fmt.Errorf("binary path must be absolute without whitespace: %q", o.Binary)
	}
	unit := Template(o)
	if existing, err := os.ReadFile(path); err == nil {
		if string(existing) == unit {
			return false, nil
		}
		if !force {
			return false, fmt.Errorf("%s exists and differs (use --force to replace)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return false, fmt.Errorf("create unit dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(unit), 0o644); err != nil {
		return false, fmt.Errorf("write unit: %w", err)
	}
	return true, nil
}
