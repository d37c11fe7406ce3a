package flclient

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/absmach/flclient/dataset"
	"github.com/absmach/flclient/model"
	"github.com/absmach/flclient/pkg/artifact"
	"github.com/absmach/flclient/pkg/storage"
	"github.com/absmach/flclient/pkg/transport"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml"
)

const (
	EnvPrefix = "FL_CLIENT_"
	// noDefaultTag is a tag no field carries. Parsing with it applies only
	// the variables that are actually set.
	noDefaultTag = "envNoDefault"
)

var (
	errMissingClientID = errors.New("client id is required")
	errMissingServer   = errors.New("server ip is required")
	errInvalidPort     = errors.New("server port must be non-zero")
	errInvalidRatio    = errors.New("trace ratio must be between 0 and 1")
)

type Config struct {
	ClientID   string  `toml:"client_id"   env:"ID"`
	ServerIP   string  `toml:"server_ip"   env:"SERVER_IP"   envDefault:"0.0.0.0"`
	ServerPort uint16  `toml:"server_port" env:"SERVER_PORT" envDefault:"8080"`
	Folder     string  `toml:"folder"      env:"FOLDER"`
	DataDir    string  `toml:"data_dir"    env:"DATA_DIR"    envDefault:"data"`
	LogLevel   string  `toml:"log_level"   env:"LOG_LEVEL"   envDefault:"info"`
	InstanceID string  `toml:"instance_id" env:"INSTANCE_ID"`
	HTTPAddr   string  `toml:"http_addr"   env:"HTTP_ADDR"`
	OTELURL    string  `toml:"otel_url"    env:"OTEL_URL"`
	TraceRatio float64 `toml:"trace_ratio" env:"TRACE_RATIO" envDefault:"1"`
	NoColor    bool    `toml:"no_color"    env:"NO_COLOR"`

	Columns   dataset.Columns  `toml:"columns"   envPrefix:"COLUMN_"`
	Model     model.Config     `toml:"model"     envPrefix:"MODEL_"`
	Fit       model.FitConfig  `toml:"fit"       envPrefix:"FIT_"`
	Transport transport.Config `toml:"transport" envPrefix:"TRANSPORT_"`
	Storage   storage.Config   `toml:"storage"   envPrefix:"STORAGE_"`
	Artifact  artifact.Config  `toml:"artifact"  envPrefix:"ARTIFACT_"`
}

// LoadConfig layers defaults, the optional TOML file at path and FL_CLIENT_
// environment variables, in increasing precedence.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: map[string]string{},
	}); err != nil {
		return Config{}, fmt.Errorf("error applying config defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}

		tree, err := toml.Load(string(data))
		if err != nil {
			return Config{}, fmt.Errorf("error parsing config file: %w", err)
		}

		if err := tree.Unmarshal(&cfg); err != nil {
			return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:              EnvPrefix,
		DefaultValueTagName: noDefaultTag,
	}); err != nil {
		return Config{}, fmt.Errorf("error parsing environment: %w", err)
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.ClientID == "" {
		return errMissingClientID
	}
	if c.ServerIP == "" {
		return errMissingServer
	}
	if c.ServerPort == 0 {
		return errInvalidPort
	}
	if c.TraceRatio < 0 || c.TraceRatio > 1 {
		return errInvalidRatio
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	if err := c.Model.Validate(); err != nil {
		return err
	}

	return c.Fit.Validate()
}
