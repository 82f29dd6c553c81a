package radio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/exepirit/rfm69serial/internal/config"
	"github.com/exepirit/rfm69serial/pkg/rfm69"
	"github.com/exepirit/rfm69serial/pkg/rfm69/serial"
	"github.com/exepirit/rfm69serial/pkg/rfm69/tcp"
)

// OpenTransport connects to the bridge board named by the device URL.
func OpenTransport(ctx context.Context, cfg config.DeviceConfig, logger *slog.Logger) (rfm69.Transport, error) {
	endpoint, err := cfg.Endpoint()
	if err != nil {
		return nil, err
	}
	switch endpoint.Scheme {
	case "serial":
		t, err := serial.NewTransport(endpoint.Address, serial.Options{
			BaudRate:    cfg.BaudRate,
			ReadTimeout: cfg.ReadTimeout,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	case "tcp":
		t, err := tcp.Dial(ctx, endpoint.Address, cfg.ReadTimeout)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported device URL scheme %q", endpoint.Scheme)
	}
}

// Open connects to the bridge, performs the handshake and applies the optional radio settings
// of the node section.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*rfm69.Device, error) {
	transport, err := OpenTransport(ctx, cfg.Device, logger)
	if err != nil {
		return nil, err
	}

	engineCfg := cfg.EngineConfig()
	if logger != nil {
		engineCfg.Logger = logger
	}
	dev, err := rfm69.Open(ctx, transport, engineCfg)
	if err != nil {
		closeTransport(transport)
		return nil, err
	}

	if err := Configure(ctx, dev, cfg.Node); err != nil {
		_ = dev.Close()
		return nil, err
	}
	return dev, nil
}

// Configure pushes frequency, power level and encryption settings to an initialized device.
func Configure(ctx context.Context, dev *rfm69.Device, node config.NodeConfig) error {
	if hz := node.CarrierFrequency(); hz != 0 {
		if err := dev.SetFrequency(ctx, hz); err != nil {
			return fmt.Errorf("failed to set frequency: %w", err)
		}
	}
	if node.PowerLevel != nil {
		if err := dev.SetPowerLevel(ctx, uint8(*node.PowerLevel)); err != nil {
			return fmt.Errorf("failed to set power level: %w", err)
		}
	}
	if node.EncryptionKey != "" {
		key, err := rfm69.DecodeKey(node.EncryptionKey)
		if err != nil && !node.CompatDefaults {
			return err
		}
		if err := dev.Encrypt(ctx, key); err != nil {
			return fmt.Errorf("failed to set encryption: %w", err)
		}
	}
	return nil
}

func closeTransport(t rfm69.Transport) {
	if closer, ok := t.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
