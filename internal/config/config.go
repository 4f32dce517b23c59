// Package config loads and validates the lifecycle agent's YAML
// configuration and maps it onto component configs.
package config

import (
	"os"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/jeden-/agent-mt5/internal/adapter"
	"github.com/jeden-/agent-mt5/internal/engine/partialclose"
	"github.com/jeden-/agent-mt5/internal/engine/stops"
	"github.com/jeden-/agent-mt5/internal/scheduler"
	"github.com/jeden-/agent-mt5/internal/version"
	"github.com/jeden-/agent-mt5/pkg/errors"
)

// Duration wraps time.Duration so YAML accepts values like "500ms" or "10s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid duration %q", raw)
	}

	*d = Duration(parsed)

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// AdapterSection configures the execution adapter.
type AdapterSection struct {
	QuoteTTL      Duration `yaml:"quote_ttl" json:"quote_ttl"`
	PositionsTTL  Duration `yaml:"positions_ttl" json:"positions_ttl"`
	OrdersTTL     Duration `yaml:"orders_ttl" json:"orders_ttl"`
	AccountTTL    Duration `yaml:"account_ttl" json:"account_ttl"`
	BatchModifies bool     `yaml:"batch_modifies" json:"batch_modifies"`
	FlushInterval Duration `yaml:"flush_interval" json:"flush_interval"`
	CallTimeout   Duration `yaml:"call_timeout" json:"call_timeout"`
	RatePerSecond float64  `yaml:"rate_per_second" json:"rate_per_second"`
	RateBurst     int      `yaml:"rate_burst" json:"rate_burst"`
}

// SchedulerSection configures the lifecycle scheduler.
type SchedulerSection struct {
	TickInterval    Duration `yaml:"tick_interval" json:"tick_interval"`
	CycleInterval   Duration `yaml:"cycle_interval" json:"cycle_interval"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	MaxConcurrent   int      `yaml:"max_concurrent" json:"max_concurrent"`
}

// StopsSection selects stop strategies globally and per symbol.
type StopsSection struct {
	Default stops.Config            `yaml:"default" json:"default" validate:"required"`
	Symbols map[string]stops.Config `yaml:"symbols" json:"symbols"`
}

// PartialCloseSection selects partial close strategies globally and per
// symbol. A missing default disables the engine for symbols without an
// override.
type PartialCloseSection struct {
	Default *partialclose.Config            `yaml:"default" json:"default"`
	Symbols map[string]partialclose.Config  `yaml:"symbols" json:"symbols"`
}

// Config is the agent's full configuration.
type Config struct {
	SchemaVersion string              `yaml:"schema_version" json:"schema_version" jsonschema:"title=Schema Version,description=Configuration schema version" validate:"required"`
	Adapter       AdapterSection      `yaml:"adapter" json:"adapter"`
	Scheduler     SchedulerSection    `yaml:"scheduler" json:"scheduler"`
	Stops         StopsSection        `yaml:"stops" json:"stops" validate:"required"`
	PartialClose  PartialCloseSection `yaml:"partial_close" json:"partial_close"`
}

// Load reads, parses, and validates a configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return Parse(raw)
}

// Parse parses and validates raw YAML configuration bytes.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks structural validity and schema version compatibility.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := version.CheckSchemaCompatibility(c.SchemaVersion); err != nil {
		return err
	}

	// Strategy parameters are validated by the selector constructors so a
	// bad config fails at load time, not mid-cycle.
	if _, err := c.StopSelector(); err != nil {
		return err
	}

	if _, err := c.PartialCloseSelector(); err != nil {
		return err
	}

	return nil
}

// AdapterConfig maps the adapter section onto the adapter package config.
func (c *Config) AdapterConfig() adapter.Config {
	ttl := adapter.DefaultTTLConfig()

	if c.Adapter.QuoteTTL > 0 {
		ttl.Quote = c.Adapter.QuoteTTL.Std()
	}

	if c.Adapter.PositionsTTL > 0 {
		ttl.Positions = c.Adapter.PositionsTTL.Std()
	}

	if c.Adapter.OrdersTTL > 0 {
		ttl.Orders = c.Adapter.OrdersTTL.Std()
	}

	if c.Adapter.AccountTTL > 0 {
		ttl.Account = c.Adapter.AccountTTL.Std()
	}

	return adapter.Config{
		TTL:           ttl,
		BatchModifies: c.Adapter.BatchModifies,
		FlushInterval: c.Adapter.FlushInterval.Std(),
		CallTimeout:   c.Adapter.CallTimeout.Std(),
		RatePerSecond: c.Adapter.RatePerSecond,
		RateBurst:     c.Adapter.RateBurst,
	}
}

// SchedulerConfig maps the scheduler section onto the scheduler package config.
func (c *Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		TickInterval:    c.Scheduler.TickInterval.Std(),
		CycleInterval:   c.Scheduler.CycleInterval.Std(),
		ShutdownTimeout: c.Scheduler.ShutdownTimeout.Std(),
		MaxConcurrent:   c.Scheduler.MaxConcurrent,
	}
}

// StopSelector builds the stop strategy selector from the stops section.
func (c *Config) StopSelector() (stops.Selector, error) {
	return stops.NewSelector(c.Stops.Default, c.Stops.Symbols)
}

// PartialCloseSelector builds the partial close selector from the
// partial_close section.
func (c *Config) PartialCloseSelector() (partialclose.Selector, error) {
	return partialclose.NewSelector(c.PartialClose.Default, c.PartialClose.Symbols)
}

// GenerateSchema generates a JSON schema for the configuration file.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(Duration(0)) {
				return &jsonschema.Schema{
					Type:        "string",
					Description: "Go duration string, e.g. \"500ms\" or \"10s\"",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "agent-mt5-lifecycle-config"
	schema.Description = "Configuration schema for the position lifecycle agent"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}
