package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/syou6162/git-patch-fixer/internal/fixer"
	"github.com/syou6162/git-patch-fixer/internal/reference"
)

const (
	// DefaultConfigName is the config file looked up in the working directory and $HOME
	DefaultConfigName = ".patch-fixer"
	// EnvPrefix prefixes every environment override, e.g. PATCH_FIXER_FUZZY
	EnvPrefix = "PATCH_FIXER"
)

// Config holds every option that changes how a patch is repaired
type Config struct {
	Fuzzy          bool     `mapstructure:"fuzzy"`
	FuzzyThreshold float64  `mapstructure:"fuzzy_threshold"`
	AddNewline     bool     `mapstructure:"add_newline"`
	Strict         bool     `mapstructure:"strict"`
	Verify         bool     `mapstructure:"verify"`
	Check          bool     `mapstructure:"check"`
	Verbose        bool     `mapstructure:"verbose"`
	Encodings      []string `mapstructure:"encodings"`
}

// flagKeys maps CLI flag names onto config keys
var flagKeys = map[string]string{
	"fuzzy":           "fuzzy",
	"fuzzy-threshold": "fuzzy_threshold",
	"add-newline":     "add_newline",
	"strict":          "strict",
	"verify":          "verify",
	"check":           "check",
	"verbose":         "verbose",
}

// Load merges defaults, the config file, PATCH_FIXER_* environment variables
// and explicitly set flags, in increasing priority. configPath may be empty,
// in which case .patch-fixer.yaml is looked up in the working directory and $HOME.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fuzzy", false)
	v.SetDefault("fuzzy_threshold", fixer.DefaultFuzzyThreshold)
	v.SetDefault("add_newline", false)
	v.SetDefault("strict", false)
	v.SetDefault("verify", false)
	v.SetDefault("check", false)
	v.SetDefault("verbose", false)
	v.SetDefault("encodings", reference.DefaultEncodings)
}

// Validate rejects option values the fixer cannot run with
func (c *Config) Validate() error {
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold >= 1 {
		return fmt.Errorf("fuzzy threshold must be in (0, 1), got %v", c.FuzzyThreshold)
	}
	if len(c.Encodings) == 0 {
		return errors.New("at least one encoding is required")
	}
	return reference.ValidateEncodings(c.Encodings)
}

// FixerOptions converts the config into options for fixer.New
func (c *Config) FixerOptions() fixer.Options {
	return fixer.Options{
		Fuzzy:          c.Fuzzy,
		FuzzyThreshold: c.FuzzyThreshold,
		AddNewline:     c.AddNewline,
		Strict:         c.Strict,
		Encodings:      c.Encodings,
	}
}
