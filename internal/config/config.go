// Package config loads the optional campaigner.yaml settings file.
package config

import (
	"fmt"
	"os"

	"github.com/launchbrief/campaigner/internal/compliance"
	"github.com/launchbrief/campaigner/internal/imagegen"
	"github.com/launchbrief/campaigner/internal/llm"
	"gopkg.in/yaml.v3"
)

// Config collects the settings shared across commands. Flags override these
// values; these values override the built-in defaults.
type Config struct {
	LLM struct {
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"llm"`

	Image struct {
		Model string `yaml:"model"`
	} `yaml:"image"`

	Render struct {
		Font         string `yaml:"font"`
		FontDir      string `yaml:"font_dir"`
		TextPosition string `yaml:"text_position"`
		TextColor    string `yaml:"text_color"`
	} `yaml:"render"`

	Logo struct {
		Position  string  `yaml:"position"`
		Opacity   int     `yaml:"opacity"`
		WidthFrac float64 `yaml:"width_frac"`
	} `yaml:"logo"`

	Adjust struct {
		Brightness float64 `yaml:"brightness"`
		Contrast   float64 `yaml:"contrast"`
		Saturation float64 `yaml:"saturation"`
		Blur       float64 `yaml:"blur"`
	} `yaml:"adjust"`

	Compliance struct {
		LogoThreshold float64  `yaml:"logo_threshold"`
		WordLists     []string `yaml:"word_lists"`
	} `yaml:"compliance"`

	Ledger struct {
		Dir string `yaml:"dir"`
	} `yaml:"ledger"`
}

// Default returns the built-in settings.
func Default() *Config {
	cfg := &Config{}
	cfg.LLM.Model = llm.DefaultModel
	cfg.LLM.Temperature = 0.7
	cfg.LLM.MaxTokens = 2000
	cfg.Image.Model = imagegen.DefaultModel
	cfg.Compliance.LogoThreshold = compliance.DefaultLogoThreshold
	cfg.Compliance.WordLists = []string{"general"}
	cfg.Ledger.Dir = "output/ledger"
	return cfg
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults; a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
