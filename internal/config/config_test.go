package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
device:
  url: tcp://bridge.local:7000
  read_timeout: 250ms
node:
  address: 2
  cs_pin: 7
  int_pin: 0
  band: 868MHz
  encryption_key: a1b2c3d4e5f6g7h8
handshake:
  budget: 3s
mqtt:
  broker_url: tcp://localhost:1883
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	endpoint, err := cfg.Device.Endpoint()
	require.NoError(t, err)
	require.Equal(t, Endpoint{Scheme: "tcp", Address: "bridge.local:7000"}, endpoint)
	require.Equal(t, 250*time.Millisecond, cfg.Device.ReadTimeout)
	require.Equal(t, 115200, cfg.Device.BaudRate)
	require.Equal(t, uint32(868000000), cfg.Node.CarrierFrequency())

	engine := cfg.EngineConfig()
	require.Equal(t, uint8(2), engine.Address)
	require.Equal(t, uint8(101), engine.NetworkID)
	require.Equal(t, uint8(7), engine.ChipSelectPin)
	require.Equal(t, uint8(0), engine.InterruptPin)
	require.Equal(t, 3*time.Second, engine.Retry.Budget)
	require.Equal(t, 100*time.Millisecond, engine.Retry.Interval)
	require.Equal(t, "rfm69", cfg.MQTT.RootTopic)
}

func TestLoadRejectsShortKey(t *testing.T) {
	path := writeConfig(t, "node:\n  encryption_key: short\n")
	_, err := Load(path)
	require.Error(t, err)

	path = writeConfig(t, "node:\n  encryption_key: short\n  compat_defaults: true\n")
	_, err = Load(path)
	require.NoError(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	for name, content := range map[string]string{
		"scheme":      "device:\n  url: http://example.com\n",
		"pin":         "node:\n  cs_pin: 255\n",
		"band":        "node:\n  band: 2.4GHz\n",
		"power":       "node:\n  power_level: 300\n",
		"format":      "mqtt:\n  format: xml\n",
		"address":     "node:\n  address: 300\n",
		"read timout": "device:\n  read_timeout: 0s\n",
	} {
		_, err := Load(writeConfig(t, content))
		require.Errorf(t, err, "case %s", name)
	}
}

func TestSerialEndpoint(t *testing.T) {
	endpoint, err := DeviceConfig{URL: "serial:/dev/ttyUSB0"}.Endpoint()
	require.NoError(t, err)
	require.Equal(t, Endpoint{Scheme: "serial", Address: "/dev/ttyUSB0"}, endpoint)

	endpoint, err = DeviceConfig{URL: "serial:COM3"}.Endpoint()
	require.NoError(t, err)
	require.Equal(t, "COM3", endpoint.Address)

	_, err = DeviceConfig{URL: "serial:"}.Endpoint()
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}
