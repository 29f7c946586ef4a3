package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Profile is the moneymatectl configuration file. Flags override it and it
// overrides the environment defaults.
type Profile struct {
	Store   StoreProfile   `toml:"store"`
	User    UserProfile    `toml:"user"`
	Display DisplayProfile `toml:"display"`
}

type StoreProfile struct {
	Backend    string `toml:"backend"`
	DataDir    string `toml:"data_dir,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

type UserProfile struct {
	ID string `toml:"id"`
}

type DisplayProfile struct {
	CurrencySymbol string `toml:"currency_symbol"`
}

// DefaultProfile returns the profile used when no file exists.
func DefaultProfile() Profile {
	return Profile{
		Store:   StoreProfile{Backend: "json", DataDir: "./data", SQLitePath: "./data/moneymate.db"},
		User:    UserProfile{ID: "default"},
		Display: DisplayProfile{CurrencySymbol: "₹"},
	}
}

// ProfileDir returns the XDG-compliant config directory.
func ProfileDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "moneymate")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "moneymate")
}

// ProfilePath returns the full path to the profile file.
func ProfilePath() string {
	return filepath.Join(ProfileDir(), "config.toml")
}

// LoadProfile reads the profile at path, returning defaults if it doesn't
// exist. An empty path means ProfilePath().
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		path = ProfilePath()
	}
	p := DefaultProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("reading profile: %w", err)
	}

	if err := toml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing profile: %w", err)
	}
	return p, nil
}

// SaveProfile writes p to path, creating the directory if needed.
func SaveProfile(path string, p Profile) error {
	if path == "" {
		path = ProfilePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating profile dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating profile file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(p)
}
