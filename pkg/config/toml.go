package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	OCR    OCRConfig    `toml:"ocr"`
	Output OutputConfig `toml:"output"`
}

// OCRConfig maps recognition settings. Nil fields keep the built-in defaults.
type OCRConfig struct {
	Lang      *string `toml:"lang"`
	Whitelist *string `toml:"whitelist"`
	Blacklist *string `toml:"blacklist"`
	PSM       *int    `toml:"psm"`
	MinWidth  *int    `toml:"min-width"`
}

// OutputConfig maps result output settings.
type OutputConfig struct {
	Format *string `toml:"format"`
	Dir    *string `toml:"dir"`
	DB     *string `toml:"db"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undec[0].String())
	}
	if cfg.OCR.PSM != nil && (*cfg.OCR.PSM < 0 || *cfg.OCR.PSM > 13) {
		return FileConfig{}, fmt.Errorf("ocr.psm must be between 0 and 13, got %d", *cfg.OCR.PSM)
	}
	return cfg, nil
}

// Template is written by "sushida config init".
const Template = `# sushida configuration
# Uncomment a value to enable it. CLI flags override config values.

[ocr]
# lang = "jpn"            # Tesseract language(s), "+" separated
# whitelist = ""          # Characters Tesseract may return (empty keeps the built-in set)
# blacklist = ""          # Characters Tesseract must not return
# psm = 6                 # Page segmentation mode
# min-width = 800         # Screenshots narrower than this are upscaled

[output]
# format = "json"         # json, csv, yaml or xlsx
# dir = ""                # Output directory (default: XDG data dir)
# db = ""                 # History database path
`

// WriteTemplate creates the config file at path unless it already exists.
func WriteTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s (use --force to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
