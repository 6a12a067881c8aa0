// Package config resolves btg settings from defaults, a JSON config file and
// BTG_* environment variables. Command-line flags are applied last by the cli
// package.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jmylchreest/btg/internal/colour"
	"github.com/jmylchreest/btg/internal/security"
)

// LocalFile is looked up in the working directory before the user config file.
const LocalFile = ".btg.json"

// Config holds directory locations and the shared recolouring tunables.
type Config struct {
	Palettes      string  `json:"palettes"`
	Templates     string  `json:"templates"`
	Textures      string  `json:"textures"`
	Output        string  `json:"output"`
	MinAlpha      int     `json:"minAlpha"`
	AlphaWeight   float64 `json:"alphaWeight"`
	ExactFirst    bool    `json:"exactFirst"`
	PreserveAlpha bool    `json:"preserveAlpha"`
	Workers       int     `json:"workers"`
	MaxColors     int     `json:"maxColors"`

	// Source is the config file that was read, empty when none was found.
	Source string `json:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Palettes:      "palettes",
		Templates:     "templates",
		Textures:      "textures",
		Output:        "output",
		MinAlpha:      1,
		AlphaWeight:   colour.DefaultAlphaWeight,
		ExactFirst:    true,
		PreserveAlpha: true,
		Workers:       1,
		MaxColors:     32,
	}
}

// Load resolves the configuration. An explicit path must exist; otherwise
// LocalFile in the working directory and then the user config file are tried,
// and neither is required. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := findFile(path)
	if err != nil {
		return nil, err
	}
	if file != "" {
		if err := cfg.readFile(file); err != nil {
			return nil, err
		}
		cfg.Source = file
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UserFile returns the per-user config file location.
func UserFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "btg", "config.json"), nil
}

func findFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("failed to read config file: %w", err)
		}
		return explicit, nil
	}

	candidates := []string{LocalFile}
	if user, err := UserFile(); err == nil {
		candidates = append(candidates, user)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - config path supplied by the user, intended to be read
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from BTG_* variables read through getenv.
func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"BTG_PALETTES":  &c.Palettes,
		"BTG_TEMPLATES": &c.Templates,
		"BTG_TEXTURES":  &c.Textures,
		"BTG_OUTPUT":    &c.Output,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"BTG_MIN_ALPHA": &c.MinAlpha,
		"BTG_WORKERS":   &c.Workers,
	}
	for key, dst := range ints {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*dst = n
		}
	}

	if v := getenv("BTG_ALPHA_WEIGHT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid BTG_ALPHA_WEIGHT %q: %w", v, err)
		}
		c.AlphaWeight = f
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.MinAlpha < 0 || c.MinAlpha > 255 {
		errs = append(errs, fmt.Errorf("minAlpha must be between 0 and 255, got %d", c.MinAlpha))
	}
	if c.AlphaWeight < 0 {
		errs = append(errs, fmt.Errorf("alphaWeight must not be negative, got %g", c.AlphaWeight))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.MaxColors < 0 {
		errs = append(errs, fmt.Errorf("maxColors must not be negative, got %d", c.MaxColors))
	}
	return errors.Join(errs...)
}

// MinAlpha8 returns MinAlpha as a channel value.
func (c *Config) MinAlpha8() uint8 {
	return security.SafeUint8(c.MinAlpha)
}

// Marshal renders the configuration as indented JSON.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}
