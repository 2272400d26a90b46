package mqttprobe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBroker(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestNewAppliesDefaults(t *testing.T) {
	p, err := New(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)
	require.NotNil(t, p)

	inner, ok := p.(*prober)
	require.True(t, ok)
	assert.Equal(t, "slopewatch-probe", inner.config.ClientID)
	assert.Equal(t, 30*time.Second, inner.config.ConnectTimeout)
}

func TestNewKeepsExplicitConfig(t *testing.T) {
	p, err := New(Config{
		Broker:         "tcp://broker.example.com:1883",
		ClientID:       "station-check",
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	inner := p.(*prober)
	assert.Equal(t, "station-check", inner.config.ClientID)
	assert.Equal(t, 5*time.Second, inner.config.ConnectTimeout)
}

func TestDisconnectWithoutConnectIsQuiet(t *testing.T) {
	p, err := New(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)
	p.Disconnect()
}
