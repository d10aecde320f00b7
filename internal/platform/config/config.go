package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	RemoteNone     = "none"
	RemoteSQLite   = "sqlite"
	RemotePostgres = "postgres"
	RemoteREST     = "rest"

	// APIKeyEnv overrides remote.api_key so the key can stay out of the file.
	APIKeyEnv = "POMO_REMOTE_API_KEY"
)

type Config struct {
	DataDir      string
	StatePath    string
	IdentityPath string
	LogPath      string
	LogLevel     string
	Durations    Durations
	Remote       Remote
	History      History
	Sync         Sync
	Archive      Archive
}

type Durations struct {
	Focus      time.Duration
	ShortBreak time.Duration
	LongBreak  time.Duration
}

type Remote struct {
	Kind    string
	DSN     string
	URL     string
	APIKey  string
	Table   string
	Timeout time.Duration
}

// History.MergeLocal keeps local-only entries when remote history is loaded.
// The default (false) lets the remote view replace local history.
type History struct {
	MergeLocal bool
}

type Sync struct {
	QueueSize    int
	DrainTimeout time.Duration
}

// Archive.Dir, when set, receives one markdown note per completed session.
type Archive struct {
	Dir string
}

func New(dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	return Config{
		DataDir:      dataDir,
		StatePath:    filepath.Join(dataDir, "pomodoro_state_v1.json"),
		IdentityPath: filepath.Join(dataDir, "identity.json"),
		LogPath:      filepath.Join(dataDir, "pomo.log"),
		LogLevel:     "info",
		Durations: Durations{
			Focus:      25 * time.Minute,
			ShortBreak: 5 * time.Minute,
			LongBreak:  15 * time.Minute,
		},
		Remote: Remote{
			Kind:    RemoteNone,
			DSN:     filepath.Join(dataDir, "remote.db"),
			Table:   "pomodoros",
			Timeout: 10 * time.Second,
		},
		Sync: Sync{
			QueueSize:    64,
			DrainTimeout: 5 * time.Second,
		},
	}, nil
}

type fileConfig struct {
	LogLevel  *string `yaml:"log_level"`
	Durations struct {
		Focus      *time.Duration `yaml:"focus"`
		ShortBreak *time.Duration `yaml:"short_break"`
		LongBreak  *time.Duration `yaml:"long_break"`
	} `yaml:"durations"`
	Remote struct {
		Kind    *string        `yaml:"kind"`
		DSN     *string        `yaml:"dsn"`
		URL     *string        `yaml:"url"`
		APIKey  *string        `yaml:"api_key"`
		Table   *string        `yaml:"table"`
		Timeout *time.Duration `yaml:"timeout"`
	} `yaml:"remote"`
	History struct {
		MergeLocal *bool `yaml:"merge_local"`
	} `yaml:"history"`
	Sync struct {
		QueueSize    *int           `yaml:"queue_size"`
		DrainTimeout *time.Duration `yaml:"drain_timeout"`
	} `yaml:"sync"`
	Archive struct {
		Dir *string `yaml:"dir"`
	} `yaml:"archive"`
}

// Load builds defaults for dataDir and overlays the YAML file at path. A
// missing file at the default location is not an error; an explicit path that
// does not exist is.
func Load(dataDir, path string, explicit bool) (Config, error) {
	cfg, err := New(dataDir)
	if err != nil {
		return Config{}, err
	}
	if path == "" {
		path = filepath.Join(dataDir, "config.yaml")
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.apply(raw); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if key := os.Getenv(APIKeyEnv); key != "" {
		cfg.Remote.APIKey = key
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(raw []byte) error {
	fc := fileConfig{}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	setString(&c.LogLevel, fc.LogLevel)
	setDuration(&c.Durations.Focus, fc.Durations.Focus)
	setDuration(&c.Durations.ShortBreak, fc.Durations.ShortBreak)
	setDuration(&c.Durations.LongBreak, fc.Durations.LongBreak)
	setString(&c.Remote.Kind, fc.Remote.Kind)
	setString(&c.Remote.DSN, fc.Remote.DSN)
	setString(&c.Remote.URL, fc.Remote.URL)
	setString(&c.Remote.APIKey, fc.Remote.APIKey)
	setString(&c.Remote.Table, fc.Remote.Table)
	setDuration(&c.Remote.Timeout, fc.Remote.Timeout)
	if fc.History.MergeLocal != nil {
		c.History.MergeLocal = *fc.History.MergeLocal
	}
	if fc.Sync.QueueSize != nil {
		c.Sync.QueueSize = *fc.Sync.QueueSize
	}
	setDuration(&c.Sync.DrainTimeout, fc.Sync.DrainTimeout)
	setString(&c.Archive.Dir, fc.Archive.Dir)
	return nil
}

func (c Config) Validate() error {
	for name, d := range map[string]time.Duration{
		"durations.focus":       c.Durations.Focus,
		"durations.short_break": c.Durations.ShortBreak,
		"durations.long_break":  c.Durations.LongBreak,
	} {
		if d < time.Second {
			return fmt.Errorf("%s must be at least 1s, got %s", name, d)
		}
	}
	switch c.Remote.Kind {
	case RemoteNone, RemoteSQLite:
	case RemotePostgres:
		if c.Remote.DSN == "" {
			return fmt.Errorf("remote.dsn is required for postgres")
		}
	case RemoteREST:
		if c.Remote.URL == "" || c.Remote.APIKey == "" {
			return fmt.Errorf("remote.url and remote.api_key (or %s) are required for rest", APIKeyEnv)
		}
	default:
		return fmt.Errorf("unknown remote.kind %q: none|sqlite|postgres|rest", c.Remote.Kind)
	}
	if c.Sync.QueueSize < 1 {
		return fmt.Errorf("sync.queue_size must be positive")
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setDuration(dst *time.Duration, v *time.Duration) {
	if v != nil {
		*dst = *v
	}
}
