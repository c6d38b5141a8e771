package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from strings like "2h" or "30m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: cannot parse %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig describes one game server bridge connection.
type ServerConfig struct {
	// Name is the unique server identity used in player@server references.
	Name string `yaml:"name"`
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`
	// Channel is the bridge channel the server relays through.
	Channel string `yaml:"channel"`
}

// Config holds all bot configuration.
type Config struct {
	Nick       string `yaml:"nick" env:"NICK"`
	NickPass   string `yaml:"nick_pass" env:"NICK_PASS"`
	Alternate  string `yaml:"alternate" env:"ALTERNATE"`
	Server     string `yaml:"server" env:"SERVER"`
	Port       int    `yaml:"port" env:"PORT"`
	TLS        bool   `yaml:"tls" env:"TLS"`
	ServerPass string `yaml:"server_pass" env:"SERVER_PASS"`
	IRCName    string `yaml:"irc_name" env:"IRC_NAME"`
	Username   string `yaml:"username" env:"USERNAME"`

	// Channel is the operators' channel all server events are mirrored into.
	Channel string `yaml:"channel" env:"CHANNEL"`
	// Trigger is the command prefix recognized in channel chat.
	Trigger string `yaml:"trigger" env:"TRIGGER"`
	// Secret is used to derive per-server login passwords.
	Secret string `yaml:"secret" env:"SECRET"`

	Servers []ServerConfig `yaml:"servers"`

	// TempmuteMax and TempbanMax are the duration ceilings for timed actions.
	TempmuteMax Duration `yaml:"tempmute_max" env:"TEMPMUTE_MAX"`
	TempbanMax  Duration `yaml:"tempban_max" env:"TEMPBAN_MAX"`
	// DefaultDuration applies when a timed command omits its duration.
	DefaultDuration Duration `yaml:"default_duration" env:"DEFAULT_DURATION"`

	// WarnAllowance is how many warnings a player gets before the automatic
	// tempmute of WarnMuteFor kicks in.
	WarnAllowance int      `yaml:"warn_allowance" env:"WARN_ALLOWANCE"`
	WarnMuteFor   Duration `yaml:"warn_mute_for" env:"WARN_MUTE_FOR"`

	// ListCooldown rate-limits the players command channel-wide.
	ListCooldown Duration `yaml:"list_cooldown" env:"LIST_COOLDOWN"`

	DataDir     string `yaml:"data_dir" env:"DATA_DIR"`
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR"`
}

// Load reads a YAML configuration file, applies TRACKD_-prefixed environment
// overrides, then fills in defaults and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "TRACKD_"}); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 6667
	}
	if c.Trigger == "" {
		c.Trigger = ","
	}
	if c.Username == "" {
		c.Username = c.Nick
	}
	if c.IRCName == "" {
		c.IRCName = "trackd moderation relay"
	}
	if c.Alternate == "" && c.Nick != "" {
		c.Alternate = c.Nick + "_"
	}
	if c.TempmuteMax == 0 {
		c.TempmuteMax = Duration(2 * time.Hour)
	}
	if c.TempbanMax == 0 {
		c.TempbanMax = Duration(30 * 24 * time.Hour)
	}
	if c.DefaultDuration == 0 {
		c.DefaultDuration = Duration(5 * time.Minute)
	}
	if c.WarnAllowance == 0 {
		c.WarnAllowance = 2
	}
	if c.WarnMuteFor == 0 {
		c.WarnMuteFor = Duration(30 * time.Minute)
	}
	if c.ListCooldown == 0 {
		c.ListCooldown = Duration(15 * time.Second)
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	for i := range c.Servers {
		if c.Servers[i].Port == 0 {
			c.Servers[i].Port = 6667
		}
		if c.Servers[i].Channel == "" {
			c.Servers[i].Channel = "#bridge"
		}
	}
}

// Validate checks the configuration for missing or conflicting values.
func (c *Config) Validate() error {
	if c.Nick == "" {
		return fmt.Errorf("config: nick is required")
	}
	if c.Server == "" {
		return fmt.Errorf("config: server is required")
	}
	if c.Channel == "" {
		return fmt.Errorf("config: channel is required")
	}
	if c.Secret == "" {
		return fmt.Errorf("config: secret is required")
	}
	if len(c.Servers) == 0 {
		return fmt.Errorf("config: at least one game server is required")
	}

	seen := make(map[string]bool, len(c.Servers))
	for _, s := range c.Servers {
		if s.Name == "" {
			return fmt.Errorf("config: server entry missing a name")
		}
		if strings.ContainsAny(s.Name, "@ ") {
			return fmt.Errorf("config: server name %q may not contain '@' or spaces", s.Name)
		}
		key := strings.ToLower(s.Name)
		if seen[key] {
			return fmt.Errorf("config: duplicate server name %q", s.Name)
		}
		seen[key] = true
		if s.Addr == "" {
			return fmt.Errorf("config: server %q missing addr", s.Name)
		}
	}

	if c.TempmuteMax <= 0 || c.TempbanMax <= 0 || c.DefaultDuration <= 0 {
		return fmt.Errorf("config: duration limits must be positive")
	}
	return nil
}
