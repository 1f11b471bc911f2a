package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-imguiws/internal/pacing"
)

const (
	DefaultPort      = 5003
	DefaultHTTPRoot  = "./web"
	DefaultIndexFile = "index.html"
	DefaultFPS       = 60.0
)

type Display struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Pacing struct {
	GuardMicros   int     `yaml:"guard_us"`       // e.g. 100
	SleepFraction float64 `yaml:"sleep_fraction"` // e.g. 0.9
	FinalSpin     bool    `yaml:"final_spin"`
}

type Config struct {
	Name      string  `yaml:"name"`
	Port      int     `yaml:"port"`
	HTTPRoot  string  `yaml:"http_root"`
	IndexFile string  `yaml:"index_file"`
	FPS       float64 `yaml:"fps"`
	Theme     string  `yaml:"theme"` // "dark" | "light" | "classic"
	LogLevel  string  `yaml:"log_level,omitempty"`

	Display Display `yaml:"display"`
	Pacing  Pacing  `yaml:"pacing"`
}

func Default() *Config {
	return &Config{
		Name:      "imguiws-demo",
		Port:      DefaultPort,
		HTTPRoot:  DefaultHTTPRoot,
		IndexFile: DefaultIndexFile,
		FPS:       DefaultFPS,
		Theme:     "dark",
		LogLevel:  "info",
		Display:   Display{Width: 1200, Height: 800},
		Pacing:    Pacing{GuardMicros: 100, SleepFraction: 0.9},
	}
}

// Load reads path on top of Default, so omitted keys keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// ApplyArgs applies the positional overrides: args[0] is the port,
// args[1] the http root directory. Extra arguments are ignored.
func (c *Config) ApplyArgs(args []string) error {
	if len(args) > 0 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[0], err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port %d: out of range", port)
		}
		c.Port = port
	}
	if len(args) > 1 && args[1] != "" {
		c.HTTPRoot = args[1]
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if !(c.FPS > 0) {
		return fmt.Errorf("fps must be > 0, got %v", c.FPS)
	}
	switch c.Theme {
	case "dark", "light", "classic":
	default:
		return fmt.Errorf("unknown theme %q", c.Theme)
	}
	if c.HTTPRoot == "" {
		return fmt.Errorf("http root is empty")
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", c.Display.Width, c.Display.Height)
	}
	if c.Pacing.GuardMicros < 0 {
		return fmt.Errorf("pacing guard must not be negative")
	}
	if f := c.Pacing.SleepFraction; f != 0 && !(f >= pacing.MinSleepFraction && f <= 1) {
		return fmt.Errorf("pacing sleep fraction %v outside [%v,1]", f, pacing.MinSleepFraction)
	}
	return nil
}

// Addr is the listen address for Port on all interfaces.
func (c *Config) Addr() string { return ":" + strconv.Itoa(c.Port) }
