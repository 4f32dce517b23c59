package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/jeden-/agent-mt5/pkg/errors"
)

const validConfig = `
schema_version: "1.0.0"
adapter:
  quote_ttl: 1s
  positions_ttl: 2s
  orders_ttl: 2s
  account_ttl: 5s
  batch_modifies: true
  flush_interval: 500ms
  call_timeout: 10s
  rate_per_second: 10
  rate_burst: 5
scheduler:
  tick_interval: 250ms
  cycle_interval: 10s
  shutdown_timeout: 30s
  max_concurrent: 8
stops:
  default:
    strategy: breakeven
    threshold_pips: 30
  symbols:
    USDJPY:
      strategy: fixed-pips-trailing
      activation_pips: 20
      step_pips: 15
partial_close:
  default:
    strategy: levels
    levels:
      - profit_pips: 20
        close_fraction: 0.3
      - profit_pips: 50
        close_fraction: 0.5
`

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestParse_Valid() {
	cfg, err := Parse([]byte(validConfig))
	suite.Require().NoError(err)

	suite.Equal("1.0.0", cfg.SchemaVersion)
	suite.Equal(time.Second, cfg.Adapter.QuoteTTL.Std())
	suite.Equal(500*time.Millisecond, cfg.Adapter.FlushInterval.Std())
	suite.True(cfg.Adapter.BatchModifies)
	suite.Equal(10*time.Second, cfg.Scheduler.CycleInterval.Std())
}

func (suite *ConfigTestSuite) TestLoad_FromFile() {
	path := filepath.Join(suite.T().TempDir(), "lifecycle.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(validConfig), 0o644))

	cfg, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal("1.0.0", cfg.SchemaVersion)
}

func (suite *ConfigTestSuite) TestLoad_MissingFile() {
	_, err := Load("/nonexistent/lifecycle.yaml")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestParse_InvalidYAML() {
	_, err := Parse([]byte("schema_version: [unclosed"))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestParse_InvalidDuration() {
	raw := `
schema_version: "1.0.0"
adapter:
  quote_ttl: soon
stops:
  default:
    strategy: breakeven
    threshold_pips: 30
`

	_, err := Parse([]byte(raw))
	suite.Require().Error(err)
}

func (suite *ConfigTestSuite) TestParse_MissingSchemaVersion() {
	raw := `
stops:
  default:
    strategy: breakeven
    threshold_pips: 30
`

	_, err := Parse([]byte(raw))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestParse_IncompatibleSchemaVersion() {
	raw := `
schema_version: "99.0.0"
stops:
  default:
    strategy: breakeven
    threshold_pips: 30
`

	_, err := Parse([]byte(raw))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeVersionMismatch))
}

func (suite *ConfigTestSuite) TestParse_BadStopStrategyFailsAtLoad() {
	raw := `
schema_version: "1.0.0"
stops:
  default:
    strategy: fixed-pips-trailing
`

	_, err := Parse([]byte(raw))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (suite *ConfigTestSuite) TestParse_BadPartialCloseConfigFailsAtLoad() {
	raw := `
schema_version: "1.0.0"
stops:
  default:
    strategy: breakeven
    threshold_pips: 30
partial_close:
  default:
    strategy: levels
`

	_, err := Parse([]byte(raw))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (suite *ConfigTestSuite) TestAdapterConfig_AppliesTTLOverrides() {
	cfg, err := Parse([]byte(validConfig))
	suite.Require().NoError(err)

	adapterCfg := cfg.AdapterConfig()
	suite.Equal(time.Second, adapterCfg.TTL.Quote)
	suite.Equal(2*time.Second, adapterCfg.TTL.Positions)
	suite.Equal(5*time.Second, adapterCfg.TTL.Account)
	suite.Equal(10.0, adapterCfg.RatePerSecond)
}

func (suite *ConfigTestSuite) TestAdapterConfig_FallsBackToDefaults() {
	raw := `
schema_version: "1.0.0"
stops:
  default:
    strategy: breakeven
    threshold_pips: 30
`

	cfg, err := Parse([]byte(raw))
	suite.Require().NoError(err)

	adapterCfg := cfg.AdapterConfig()
	suite.Equal(time.Second, adapterCfg.TTL.Quote)
	suite.Equal(2*time.Second, adapterCfg.TTL.Positions)
}

func (suite *ConfigTestSuite) TestSelectors() {
	cfg, err := Parse([]byte(validConfig))
	suite.Require().NoError(err)

	stopSelector, err := cfg.StopSelector()
	suite.Require().NoError(err)
	suite.Equal("breakeven", string(stopSelector.For("EURUSD").Kind()))
	suite.Equal("fixed-pips-trailing", string(stopSelector.For("USDJPY").Kind()))

	partialSelector, err := cfg.PartialCloseSelector()
	suite.Require().NoError(err)
	suite.NotNil(partialSelector.For("EURUSD"))
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	cfg := &Config{}

	schema, err := cfg.GenerateSchema()
	suite.Require().NoError(err)
	suite.Equal("agent-mt5-lifecycle-config", schema.Title)

	raw, err := json.Marshal(schema)
	suite.Require().NoError(err)
	suite.Contains(string(raw), "schema_version")
	suite.Contains(string(raw), "partial_close")
}

func (suite *ConfigTestSuite) TestDuration_Marshal() {
	d := Duration(1500 * time.Millisecond)

	value, err := d.MarshalYAML()
	suite.Require().NoError(err)
	suite.Equal("1.5s", value)
}
