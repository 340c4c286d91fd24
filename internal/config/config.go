// Package config loads engine settings from defaults, an optional YAML
// file, ADAPTIVE_* environment variables and command-line flags, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is stripped from environment variables before mapping them to
// config keys. A double underscore separates nesting levels, so
// ADAPTIVE_REVIEW__MAX_RETRIES sets review.max_retries.
const EnvPrefix = "ADAPTIVE_"

// Config holds all runtime settings.
type Config struct {
	DB     DBConfig     `koanf:"db"`
	Log    LogConfig    `koanf:"log"`
	Review ReviewConfig `koanf:"review"`
	Plan   PlanConfig   `koanf:"plan"`
}

type DBConfig struct {
	// Path to the SQLite file. Empty means the default data directory.
	Path string `koanf:"path"`
}

type LogConfig struct {
	Mode string `koanf:"mode" validate:"oneof=dev prod production"`
}

// ReviewConfig tunes how stored review items are updated.
type ReviewConfig struct {
	// MaxRetries bounds compare-and-swap attempts per graded review.
	MaxRetries int `koanf:"max_retries" validate:"gte=1,lte=20"`
	// Concurrency limits how many distinct items a batch grades at once.
	Concurrency int `koanf:"concurrency" validate:"gte=1,lte=64"`
}

// PlanConfig sizes the study plan.
type PlanConfig struct {
	TotalSlots       int `koanf:"total_slots" validate:"gte=1,lte=50"`
	ReviewSlots      int `koanf:"review_slots" validate:"gte=0"`
	RemediationSlots int `koanf:"remediation_slots" validate:"gte=0"`
	// HistoryWindow is how many recent quiz results are loaded per decision.
	HistoryWindow int `koanf:"history_window" validate:"gte=1"`
}

// Defaults returns the built-in configuration.
func Defaults() map[string]any {
	return map[string]any{
		"db.path":                "",
		"log.mode":               "dev",
		"review.max_retries":     5,
		"review.concurrency":     4,
		"plan.total_slots":       5,
		"plan.review_slots":      3,
		"plan.remediation_slots": 2,
		"plan.history_window":    10,
	}
}

// flagKeys maps command-line flag names to config keys. Flags not listed
// here are not configuration.
var flagKeys = map[string]string{
	"db":          "db.path",
	"log-mode":    "log.mode",
	"max-retries": "review.max_retries",
	"concurrency": "review.concurrency",
}

// Load builds a Config. path may be empty, in which case no file is read;
// a non-empty path that does not exist is an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	ko := koanf.New(".")

	if err := ko.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := ko.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := ko.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if flags != nil {
		p := posflag.ProviderWithFlag(flags, ".", ko, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := ko.Load(p, nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := ko.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns ADAPTIVE_PLAN__TOTAL_SLOTS into plan.total_slots. Variables
// without a nesting separator (such as ADAPTIVE_DB) are ignored here.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if !strings.Contains(key, "__") {
		return ""
	}
	return strings.ReplaceAll(key, "__", ".")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(planSlotsBalance, PlanConfig{})
	return v
}

func planSlotsBalance(sl validator.StructLevel) {
	p := sl.Current().Interface().(PlanConfig)
	if p.ReviewSlots+p.RemediationSlots != p.TotalSlots {
		sl.ReportError(p.TotalSlots, "TotalSlots", "total_slots", "slotsum", "")
	}
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
