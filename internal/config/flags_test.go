package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "node:\n  address: 5\n  network_id: 50\nlog:\n  level: warn\n")

	var f Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f.Register(fs)
	require.NoError(t, fs.Parse([]string{"-config", path, "-device", "tcp://localhost:2000", "-address", "9"}))

	cfg, err := f.Load()
	require.NoError(t, err)
	require.Equal(t, "tcp://localhost:2000", cfg.Device.URL)
	require.Equal(t, 9, cfg.Node.Address)
	require.Equal(t, 50, cfg.Node.NetworkID)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestFlagsWithoutFile(t *testing.T) {
	var f Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f.Register(fs)
	require.NoError(t, fs.Parse([]string{"-device", "ftp://nowhere"}))

	_, err := f.Load()
	require.Error(t, err)
}
