package project

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SettingsFile is the optional per-project settings file.
const SettingsFile = "roost.yml"

// Settings tune discovery, generation and watch mode. They come from
// roost.yml and ROOST_* environment variables (ROOST_GENERATE_WORKERS=4).
type Settings struct {
	Discover DiscoverSettings `mapstructure:"discover"`
	Generate GenerateSettings `mapstructure:"generate"`
	Watch    WatchSettings    `mapstructure:"watch"`

	// File is the settings file that was read, "" when none was found.
	File string `mapstructure:"-"`
}

// DiscoverSettings control which spec files are found.
type DiscoverSettings struct {
	Pattern string   `mapstructure:"pattern"`
	Exclude []string `mapstructure:"exclude"`
}

// GenerateSettings control code generation.
type GenerateSettings struct {
	Suffix    string `mapstructure:"suffix"`    // output name suffix when a spec has no output
	Typecheck bool   `mapstructure:"typecheck"` // type check defaults against the package
	Workers   int    `mapstructure:"workers"`   // 0 means one per CPU
}

// WatchSettings control `roost watch`.
type WatchSettings struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("discover.pattern", "*.roost.yml")
	v.SetDefault("discover.exclude", []string{})
	v.SetDefault("generate.suffix", "_gen.go")
	v.SetDefault("generate.typecheck", true)
	v.SetDefault("generate.workers", 0)
	v.SetDefault("watch.debounce", 250*time.Millisecond)
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() *Settings {
	v := viper.New()
	setDefaults(v)
	var s Settings
	// Defaults always decode.
	_ = v.Unmarshal(&s)
	return &s
}

// LoadSettings reads settings from path, which is either a directory that
// may contain roost.yml or the settings file itself.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ROOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(SettingsFile, ".yml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read %s: %w", SettingsFile, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	s.File = v.ConfigFileUsed()

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) validate() error {
	var problems []string
	if s.Discover.Pattern == "" {
		problems = append(problems, "discover.pattern must not be empty")
	}
	if !strings.HasSuffix(s.Generate.Suffix, ".go") {
		problems = append(problems, fmt.Sprintf("generate.suffix '%s' must end in .go", s.Generate.Suffix))
	}
	if s.Generate.Workers < 0 {
		problems = append(problems, "generate.workers must not be negative")
	}
	if s.Watch.Debounce < 0 {
		problems = append(problems, "watch.debounce must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}
	return nil
}
