package backtest

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/tradeview-lab/tradeview/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config controls a single backtest run.
type Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in USD,minimum=0"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
}

// UnmarshalYAML maps absent start/end times onto None instead of zero times.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type plain struct {
		InitialCapital float64    `yaml:"initial_capital"`
		StartTime      *time.Time `yaml:"start_time"`
		EndTime        *time.Time `yaml:"end_time"`
	}

	var raw plain
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.InitialCapital = raw.InitialCapital
	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	return nil
}

// Validate checks the config is runnable.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeBacktestConfig, "initial_capital must be positive, got %v", c.InitialCapital)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeBacktestConfig, "end_time must not precede start_time")
	}

	return nil
}

// ParseConfig decodes a YAML config document and validates it.
func ParseConfig(data []byte) (Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeBacktestConfig, "failed to parse backtest config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// GenerateSchema generates a JSON schema for the backtest config.
func (c Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(&c)
	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for a backtest run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates an indented JSON schema string for the config.
func (c Config) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
