package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/exepirit/rfm69serial/pkg/rfm69"
	"github.com/exepirit/rfm69serial/pkg/rfm69/mqtt"
)

// Config represents the application configuration
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Node      NodeConfig      `yaml:"node"`
	Handshake HandshakeConfig `yaml:"handshake"`
	Log       LogConfig       `yaml:"log"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// DeviceConfig describes how the bridge board is reached.
type DeviceConfig struct {
	// URL is "serial:/dev/ttyACM0" or "tcp://host:port".
	URL         string        `yaml:"url"`
	BaudRate    int           `yaml:"baud_rate"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// NodeConfig is the radio identity pushed to the firmware.
type NodeConfig struct {
	Address        int    `yaml:"address"`
	NetworkID      int    `yaml:"network_id"`
	ChipSelectPin  int    `yaml:"cs_pin"`
	InterruptPin   int    `yaml:"int_pin"`
	Frequency      uint32 `yaml:"frequency"`
	Band           string `yaml:"band"`
	PowerLevel     *int   `yaml:"power_level"`
	EncryptionKey  string `yaml:"encryption_key"`
	CompatDefaults bool   `yaml:"compat_defaults"`
}

// HandshakeConfig is the initialization retry policy.
type HandshakeConfig struct {
	Budget   time.Duration `yaml:"budget"`
	Interval time.Duration `yaml:"interval"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MQTTConfig configures the broker bridge.
type MQTTConfig struct {
	BrokerURL string `yaml:"broker_url"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	AppName   string `yaml:"app_name"`
	RootTopic string `yaml:"root_topic"`
	Format    string `yaml:"format"`
	Buffer    int    `yaml:"buffer"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	def := rfm69.DefaultConfig()
	return Config{
		Device: DeviceConfig{
			URL:         "serial:/dev/ttyACM0",
			BaudRate:    115200,
			ReadTimeout: time.Second,
		},
		Node: NodeConfig{
			Address:       int(def.Address),
			NetworkID:     int(def.NetworkID),
			ChipSelectPin: int(def.ChipSelectPin),
			InterruptPin:  int(def.InterruptPin),
		},
		Handshake: HandshakeConfig{
			Budget:   def.Retry.Budget,
			Interval: def.Retry.Interval,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		MQTT: MQTTConfig{
			AppName:   "rfm69-bridge",
			RootTopic: "rfm69",
			Format:    string(mqtt.FormatProtobuf),
			Buffer:    16,
		},
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and formats. Node address and network id are left to the
// protocol engine, which either rejects or substitutes them depending on compat_defaults.
func (c Config) Validate() error {
	if _, err := c.Device.Endpoint(); err != nil {
		return err
	}
	if c.Device.ReadTimeout <= 0 {
		return fmt.Errorf("device read_timeout must be positive")
	}
	if c.Node.Address < 0 || c.Node.Address > 255 {
		return fmt.Errorf("node address %d does not fit a byte", c.Node.Address)
	}
	if c.Node.NetworkID < 0 || c.Node.NetworkID > 255 {
		return fmt.Errorf("node network_id %d does not fit a byte", c.Node.NetworkID)
	}
	if c.Node.ChipSelectPin < 0 || c.Node.ChipSelectPin > rfm69.MaxPin {
		return fmt.Errorf("node cs_pin must be within 0..%d", rfm69.MaxPin)
	}
	if c.Node.InterruptPin < 0 || c.Node.InterruptPin > rfm69.MaxPin {
		return fmt.Errorf("node int_pin must be within 0..%d", rfm69.MaxPin)
	}
	if c.Node.PowerLevel != nil && (*c.Node.PowerLevel < 0 || *c.Node.PowerLevel > 255) {
		return fmt.Errorf("node power_level must be within 0..255")
	}
	if c.Node.Band != "" {
		if _, ok := rfm69.BandByName(c.Node.Band); !ok {
			return fmt.Errorf("unknown band %q", c.Node.Band)
		}
	}
	if _, err := rfm69.DecodeKey(c.Node.EncryptionKey); err != nil && !c.Node.CompatDefaults {
		return fmt.Errorf("node encryption_key: %w", err)
	}
	if _, err := mqtt.ParseFormat(c.MQTT.Format); err != nil {
		return err
	}
	return nil
}

// Endpoint is a parsed device URL.
type Endpoint struct {
	Scheme string
	// Address is the serial device path or the TCP host:port.
	Address string
}

// Endpoint parses the device URL.
func (d DeviceConfig) Endpoint() (Endpoint, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return Endpoint{}, fmt.Errorf("device URL is not valid: %w", err)
	}
	switch u.Scheme {
	case "serial":
		path := u.Opaque
		if path == "" {
			path = u.Path
		}
		if strings.TrimSpace(path) == "" {
			return Endpoint{}, fmt.Errorf("device URL %q has no port", d.URL)
		}
		return Endpoint{Scheme: u.Scheme, Address: path}, nil
	case "tcp":
		if u.Host == "" {
			return Endpoint{}, fmt.Errorf("device URL %q has no host", d.URL)
		}
		return Endpoint{Scheme: u.Scheme, Address: u.Host}, nil
	default:
		return Endpoint{}, fmt.Errorf("unsupported device URL scheme %q", u.Scheme)
	}
}

// CarrierFrequency returns the configured carrier frequency, preferring an explicit value over a band preset.
// Zero means the firmware default is kept.
func (n NodeConfig) CarrierFrequency() uint32 {
	if n.Frequency != 0 {
		return n.Frequency
	}
	if band, ok := rfm69.BandByName(n.Band); ok {
		return band.Frequency
	}
	return 0
}

// EngineConfig converts the node and handshake sections into the protocol engine configuration.
func (c Config) EngineConfig() rfm69.Config {
	return rfm69.Config{
		Address:        uint8(c.Node.Address),
		NetworkID:      uint8(c.Node.NetworkID),
		ChipSelectPin:  uint8(c.Node.ChipSelectPin),
		InterruptPin:   uint8(c.Node.InterruptPin),
		CompatDefaults: c.Node.CompatDefaults,
		Retry: rfm69.RetryPolicy{
			Budget:   c.Handshake.Budget,
			Interval: c.Handshake.Interval,
		},
	}
}
