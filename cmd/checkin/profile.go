package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultServerURL = "http://localhost:8080"
	defaultTimeout   = "15s"
)

// Profile is the CLI's TOML settings file.
type Profile struct {
	ServerURL string `toml:"server_url"`
	Timeout   string `toml:"timeout"`
	Timezone  string `toml:"timezone,omitempty"`
}

func (p Profile) timeout() (time.Duration, error) {
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", p.Timeout, err)
	}
	return d, nil
}

// location is the profile time zone, or the system one when unset.
func (p Profile) location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(p.Timezone)
}

func stateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "checkin")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func profilePath() (string, error) {
	dir, err := stateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func loadProfile() (Profile, error) {
	p := Profile{ServerURL: defaultServerURL, Timeout: defaultTimeout}

	path, err := profilePath()
	if err != nil {
		return p, err
	}
	if _, err := toml.DecodeFile(path, &p); err != nil && !os.IsNotExist(err) {
		return p, err
	}
	if p.Timeout == "" {
		p.Timeout = defaultTimeout
	}
	if s := os.Getenv("CHECKIN_SERVER"); s != "" {
		p.ServerURL = s
	}
	return p, nil
}

func saveProfile(p Profile) error {
	path, err := profilePath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(p)
}
