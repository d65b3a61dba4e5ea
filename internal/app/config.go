package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"mindmaster/internal/hint"
)

const EnvPrefix = "MINDMASTER_"

// Config controls runtime behavior for the TUI app.
type Config struct {
	DataDir      string        `env:"DATA_DIR"`
	LogPath      string        `env:"LOG"`
	CatalogPath  string        `env:"CATALOG"`
	Dev          bool          `env:"DEV"`
	DevHTTP      string        `env:"DEV_HTTP"`
	DemoScenario string        `env:"DEMO"`
	Debug        bool          `env:"DEBUG"`
	ASCIIOnly    bool          `env:"ASCII"`
	StatsEnabled bool          `env:"STATS"`
	Audio        AudioConfig   `envPrefix:"AUDIO_"`
	Hint         HintConfig    `envPrefix:"HINT_"`
	UI           UIConfig      `envPrefix:"UI_"`
	SolveDelay   time.Duration `env:"SOLVE_DELAY"`
}

type AudioConfig struct {
	Muted bool `env:"MUTED"`
	Bell  bool `env:"BELL"`
}

type HintConfig struct {
	Model   string        `env:"MODEL"`
	Timeout time.Duration `env:"TIMEOUT"`
	// APIKey overrides GEMINI_API_KEY and the keyring.
	APIKey string `env:"API_KEY"`
	// Mode is auto, gemini, offline or mock.
	Mode string `env:"MODE"`
}

type UIConfig struct {
	StyleVariant string `env:"STYLE"`
	MotionLevel  string `env:"MOTION"`
}

func DefaultConfig() Config {
	return Config{
		DevHTTP:      "127.0.0.1:17321",
		StatsEnabled: true,
		SolveDelay:   500 * time.Millisecond,
		Hint: HintConfig{
			Mode:    string(HintAuto),
			Model:   hint.DefaultModel,
			Timeout: hint.DefaultTimeout,
		},
		UI: UIConfig{
			StyleVariant: "modern_arcade",
			MotionLevel:  "full",
		},
	}
}

// LoadEnv overlays MINDMASTER_* variables on cfg. A .env file in the working
// directory is read first when present; real environment variables win.
func LoadEnv(cfg *Config, dotenv ...string) error {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return parseEnv(cfg, nil)
}

func parseEnv(cfg *Config, environ map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.UI.StyleVariant {
	case "", "modern_arcade", "cozy_clean", "retro_terminal":
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "modern_arcade"
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}
	mode, err := parseHintMode(c.Hint.Mode)
	if err != nil {
		return err
	}
	c.Hint.Mode = string(mode)
	if c.Hint.Timeout < 0 {
		return fmt.Errorf("invalid hint timeout %s", c.Hint.Timeout)
	}
	if c.Hint.Timeout == 0 {
		c.Hint.Timeout = hint.DefaultTimeout
	}
	if strings.TrimSpace(c.Hint.Model) == "" {
		c.Hint.Model = hint.DefaultModel
	}
	if c.SolveDelay < 0 {
		return fmt.Errorf("invalid solve delay %s", c.SolveDelay)
	}
	if c.Dev && strings.TrimSpace(c.DevHTTP) == "" {
		return errors.New("dev mode requires a dev http address")
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "mindmaster")
	}

	return nil
}
