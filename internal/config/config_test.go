package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/tradeview-lab/tradeview/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestDefaultsFromEmptyConfig() {
	config, err := Parse([]byte(`{}`))

	suite.Require().NoError(err)
	suite.Equal("127.0.0.1:8080", config.Server.Listen)
	suite.Equal("tradeview.db", config.Store.DBPath)
	suite.Equal(time.Minute, config.Monitor.PollInterval)
	suite.Empty(config.Monitor.Watches)
}

func (suite *ConfigTestSuite) TestFullConfig() {
	raw := []byte(`
server:
  listen: "0.0.0.0:9000"
store:
  db_path: /var/lib/tradeview/configs.db
monitor:
  poll_interval: 30s
  telegram:
    token: abc123
    chat_id: 42
  watches:
    - symbol: BTCUSDT
      strategy: ma_cross
      interval: 1h
      lookback: 200
`)

	config, err := Parse(raw)

	suite.Require().NoError(err)
	suite.Equal("0.0.0.0:9000", config.Server.Listen)
	suite.Equal(30*time.Second, config.Monitor.PollInterval)
	suite.Equal("abc123", config.Monitor.Telegram.Token)
	suite.Require().Len(config.Monitor.Watches, 1)
	suite.Equal("BTCUSDT", config.Monitor.Watches[0].Symbol)
	suite.Equal(200, config.Monitor.Watches[0].Lookback)
}

func (suite *ConfigTestSuite) TestEnvExpansion() {
	suite.T().Setenv("TEST_TG_TOKEN", "secret-token")

	config, err := Parse([]byte(`
monitor:
  telegram:
    token: ${TEST_TG_TOKEN}
    chat_id: 7
`))

	suite.Require().NoError(err)
	suite.Equal("secret-token", config.Monitor.Telegram.Token)
}

func (suite *ConfigTestSuite) TestWatchWithoutSymbolFails() {
	_, err := Parse([]byte(`
monitor:
  watches:
    - strategy: ma_cross
`))

	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfigFile))
}

func (suite *ConfigTestSuite) TestTelegramTokenWithoutChatFails() {
	_, err := Parse([]byte(`
monitor:
  telegram:
    token: abc
`))

	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfigFile))
}

func (suite *ConfigTestSuite) TestBadListenAddrFails() {
	_, err := Parse([]byte(`
server:
  listen: "not an address"
`))

	suite.Error(err)
}

func (suite *ConfigTestSuite) TestLoadFromFile() {
	path := filepath.Join(suite.T().TempDir(), "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("server:\n  listen: \"127.0.0.1:8081\"\n"), 0644))

	config, err := Load(path)

	suite.Require().NoError(err)
	suite.Equal("127.0.0.1:8081", config.Server.Listen)
}

func (suite *ConfigTestSuite) TestLoadMissingFileFails() {
	_, err := Load(filepath.Join(suite.T().TempDir(), "absent.yaml"))

	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfigFile))
}
