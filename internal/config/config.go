package config

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultSyncInterval    = time.Minute
	defaultNmcliPath       = "nmcli"
	defaultMetricsAddress  = ":9090"
	defaultLogLevel        = "info"
	defaultLogEnv          = "prod"
	defaultLookupHost      = "127.0.0.1"
	defaultLookupPort      = 6379
	defaultLookupPath      = "nmcli-sync.db"
	defaultFailoverTimeout = 120 * time.Second
	defaultPollInterval    = 5 * time.Second
)

type Config struct {
	SyncInterval time.Duration `yaml:"syncInterval"`
	Connections  []string      `yaml:"connections"`
	Log          Log           `yaml:"log"`
	Metrics      Metrics       `yaml:"metrics"`
	Nmcli        Nmcli         `yaml:"nmcli"`
	Reconcile    Reconcile     `yaml:"reconcile"`
	Lookup       Lookup        `yaml:"lookup"`
	Failover     Failover      `yaml:"failover"`
}

type Log struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

type Metrics struct {
	Address string `yaml:"address"`
}

type Nmcli struct {
	Path string `yaml:"path"`
	// HideSecrets queries connections without --show-secrets. Secret
	// settings are then left out of the comparison.
	HideSecrets bool `yaml:"hideSecrets"`
}

type Reconcile struct {
	DryRun               bool     `yaml:"dryRun"`
	ProtectedConnections []string `yaml:"protectedConnections"`
}

type Lookup struct {
	// Backend is "valkey", "badger" or empty to disable secret lookups.
	Backend string `yaml:"backend"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Socket  string `yaml:"socket"`
	Path    string `yaml:"path"`
}

type Failover struct {
	Endpoint          string        `yaml:"endpoint"`
	ApplicationKey    string        `yaml:"applicationKey"`
	ApplicationSecret string        `yaml:"applicationSecret"`
	ConsumerKey       string        `yaml:"consumerKey"`
	Timeout           time.Duration `yaml:"timeout"`
	PollInterval      time.Duration `yaml:"pollInterval"`
}

func Load(path string) (*Config, error) {
	configFile := true
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Default().Warn("fail find config file, proceeding", "path", path)
		configFile = false
	}

	var cfg Config
	if configFile {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			slog.Default().Warn("fail close config file", "path", path, "error", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.SyncInterval == 0 {
		cfg.SyncInterval = defaultSyncInterval
	}
	if cfg.Nmcli.Path == "" {
		cfg.Nmcli.Path = defaultNmcliPath
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = defaultMetricsAddress
	}

	// Set log defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.Env == "" {
		cfg.Log.Env = defaultLogEnv
	}

	if cfg.Lookup.Host == "" {
		cfg.Lookup.Host = defaultLookupHost
	}
	if cfg.Lookup.Port == 0 {
		cfg.Lookup.Port = defaultLookupPort
	}
	if cfg.Lookup.Path == "" {
		cfg.Lookup.Path = defaultLookupPath
	}

	if cfg.Failover.Timeout == 0 {
		cfg.Failover.Timeout = defaultFailoverTimeout
	}
	if cfg.Failover.PollInterval == 0 {
		cfg.Failover.PollInterval = defaultPollInterval
	}
}

// Override from environment if set
func applyEnv(cfg *Config) {
	if syncInterval := os.Getenv("NMCLI_SYNC_INTERVAL"); syncInterval != "" {
		if interval, err := time.ParseDuration(syncInterval); err == nil {
			cfg.SyncInterval = interval
		} else {
			slog.Default().Warn("fail parse sync interval to duration from string", "interval", syncInterval, "error", err)
		}
	}
	if conns := os.Getenv("NMCLI_SYNC_CONNECTIONS"); conns != "" {
		cfg.Connections = splitList(conns)
	}
	if nmcliPath := os.Getenv("NMCLI_SYNC_NMCLI_PATH"); nmcliPath != "" {
		cfg.Nmcli.Path = nmcliPath
	}
	if hide := os.Getenv("NMCLI_SYNC_HIDE_SECRETS"); hide != "" {
		if b, ok := parseBool(hide); ok {
			cfg.Nmcli.HideSecrets = b
		} else {
			slog.Default().Warn("fail parse hide secrets to bool from string", "hideSecrets", hide)
		}
	}
	if dryRun := os.Getenv("NMCLI_SYNC_DRYRUN"); dryRun != "" {
		if b, ok := parseBool(dryRun); ok {
			cfg.Reconcile.DryRun = b
		} else {
			slog.Default().Warn("fail parse dryrun to bool from string", "dryrun", dryRun)
		}
	}
	if protected := os.Getenv("NMCLI_SYNC_PROTECTED_CONNECTIONS"); protected != "" {
		cfg.Reconcile.ProtectedConnections = splitList(protected)
	}
	if addr := os.Getenv("NMCLI_SYNC_METRICS_ADDRESS"); addr != "" {
		cfg.Metrics.Address = addr
	}
	if backend := os.Getenv("NMCLI_SYNC_LOOKUP_BACKEND"); backend != "" {
		cfg.Lookup.Backend = backend
	}
	if host := os.Getenv("NMCLI_SYNC_LOOKUP_HOST"); host != "" {
		cfg.Lookup.Host = host
	}
	if port := os.Getenv("NMCLI_SYNC_LOOKUP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Lookup.Port = p
		} else {
			slog.Default().Warn("fail parse lookup port to int from string", "port", port, "error", err)
		}
	}
	if socket := os.Getenv("NMCLI_SYNC_LOOKUP_SOCKET"); socket != "" {
		cfg.Lookup.Socket = socket
	}
	if path := os.Getenv("NMCLI_SYNC_LOOKUP_PATH"); path != "" {
		cfg.Lookup.Path = path
	}
	if endpoint := os.Getenv("NMCLI_SYNC_OVH_ENDPOINT"); endpoint != "" {
		cfg.Failover.Endpoint = endpoint
	}
	if key := os.Getenv("NMCLI_SYNC_OVH_APPLICATION_KEY"); key != "" {
		cfg.Failover.ApplicationKey = key
	}
	if secret := os.Getenv("NMCLI_SYNC_OVH_APPLICATION_SECRET"); secret != "" {
		cfg.Failover.ApplicationSecret = secret
	}
	if consumer := os.Getenv("NMCLI_SYNC_OVH_CONSUMER_KEY"); consumer != "" {
		cfg.Failover.ConsumerKey = consumer
	}
	if loglevel := os.Getenv("NMCLI_SYNC_LOG_LEVEL"); loglevel != "" {
		cfg.Log.Level = loglevel
	}
	if logenv := os.Getenv("NMCLI_SYNC_LOG_ENV"); logenv != "" {
		cfg.Log.Env = logenv
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
