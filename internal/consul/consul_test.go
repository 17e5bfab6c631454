package consul

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheckUrl(t *testing.T) {
	srv := &Service{id: "rainbow-10.0.0.5:8080", address: "10.0.0.5", port: 8080}
	check := DefaultConfig().Health.toApiConfig(srv.Url())
	require.NotNil(t, check)
	assert.Equal(t, "http://10.0.0.5:8080/api/health", check.HTTP)
	assert.Equal(t, "5s", check.Interval)
	assert.Equal(t, "2s", check.Timeout)

	var noHealth *HealthConfig
	assert.Nil(t, noHealth.toApiConfig(srv.Url()))
}

func TestNewClient(t *testing.T) {
	cl, err := NewClient(&Config{Address: "127.0.0.1:8500"})
	require.NoError(t, err)
	assert.NotNil(t, cl)
}
