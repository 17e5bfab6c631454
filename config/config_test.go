package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ykhdr/rainbow-hash/internal/amqp"
	"github.com/ykhdr/rainbow-hash/internal/consul"
	"github.com/ykhdr/rainbow-hash/internal/rainbow"
	"github.com/ykhdr/rainbow-hash/internal/store/tablestore"
)

func TestInitializeConfigDefaults(t *testing.T) {
	cfg, err := InitializeConfig("")
	require.NoError(t, err)
	assert.Equal(t, rainbow.DefaultChainLength, cfg.Rainbow.ChainLength)
	assert.Equal(t, tablestore.FileType, cfg.Store.Type)
	assert.Equal(t, tablestore.DefaultPath, cfg.Store.Path)
	assert.Equal(t, DefaultSeedsPath, cfg.SeedsPath)
	assert.Nil(t, cfg.AmqpConfig)
	assert.Nil(t, cfg.ConsulConfig)
}

func TestInitializeConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.kdl")
	require.NoError(t, os.WriteFile(path, []byte(`
log-level "debug"
seeds-path "/data/rockyou.txt"
rainbow {
    chain-length 1000
}
store {
    type "file"
    path "/data/table.json"
}
`), 0o644))
	cfg, err := InitializeConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/data/rockyou.txt", cfg.SeedsPath)
	assert.Equal(t, 1000, cfg.Rainbow.ChainLength)
	assert.Positive(t, cfg.Rainbow.Workers)
	assert.Equal(t, "/data/table.json", cfg.Store.Path)
	assert.Equal(t, "127.0.0.1:8080", cfg.ApiServerAddr)
}

func TestInitializeConfigMissingFile(t *testing.T) {
	_, err := InitializeConfig(filepath.Join(t.TempDir(), "missing.kdl"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rainbow.ChainLength = 0
	assert.True(t, errors.Is(cfg.Validate(), rainbow.ErrInvalidConfig))

	cfg = &RainbowConfig{}
	require.NoError(t, cfg.Validate())
	assert.NotNil(t, cfg.Rainbow)
	assert.NotNil(t, cfg.Store)
}

func TestValidateFillsTransportDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AmqpConfig = &amqp.Config{URI: "amqp://localhost:5672/"}
	cfg.ConsulConfig = &consul.Config{Address: "localhost:8500"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, amqp.DefaultConfig().ReconnectTimeout, cfg.AmqpConfig.ReconnectTimeout)
	assert.Equal(t, "crack.request", cfg.AmqpConfig.ConsumerConfig.Queue)
	assert.Equal(t, "rainbow", cfg.AmqpConfig.PublisherConfig.Exchange)
	assert.Equal(t, "rainbow", cfg.ConsulConfig.ServiceName)

	cfg.AmqpConfig.ConsumerConfig.Queue = ""
	assert.Error(t, cfg.Validate())
}
