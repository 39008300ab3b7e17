package temporal

import (
	"github.com/caarlos0/env/v10"
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"go.temporal.io/sdk/client"
)

// Config holds the Temporal connection settings.
type Config struct {
	HostPort         string `env:"TEMPORAL_HOST_PORT" envDefault:"localhost:7233"`
	Namespace        string `env:"TEMPORAL_NAMESPACE" envDefault:"default"`
	TaskQueue        string `env:"TEMPORAL_TASK_QUEUE" envDefault:"external-logins"`
	WorkflowIDPrefix string `env:"TEMPORAL_WORKFLOW_ID_PREFIX" envDefault:"external-login"`
	RoleSource       string `env:"TEMPORAL_ROLE_SOURCE" envDefault:"external"`
}

// LoadConfig reads the configuration from the process environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "failed to parse temporal config")
	}
	return cfg, cfg.Validate()
}

// LoadConfigFrom reads the configuration from vars instead of the process environment.
func LoadConfigFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "failed to parse temporal config")
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.HostPort, validation.Required),
		validation.Field(&c.Namespace, validation.Required),
		validation.Field(&c.TaskQueue, validation.Required),
		validation.Field(&c.WorkflowIDPrefix, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.RoleSource, validation.Required),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid temporal config")
	}
	return nil
}

func (c Config) GetHostPort() string {
	return c.HostPort
}

func (c Config) GetNamespace() string {
	return c.Namespace
}

func (c Config) GetTaskQueue() string {
	return c.TaskQueue
}

func (c Config) GetWorkflowIDPrefix() string {
	return c.WorkflowIDPrefix
}

func (c Config) GetRoleSource() string {
	return c.RoleSource
}

// ClientOptions returns the options used to dial Temporal.
func (c Config) ClientOptions() client.Options {
	return client.Options{
		HostPort:  c.HostPort,
		Namespace: c.Namespace,
	}
}

// Dial connects to the Temporal frontend described by cfg.
func Dial(cfg *Config) (client.Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c, err := client.Dial(cfg.ClientOptions())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to dial temporal")
	}
	return c, nil
}
