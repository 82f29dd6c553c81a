package config

import "flag"

// Flags holds the command line overrides shared by the example programs.
type Flags struct {
	ConfigPath string
	DeviceURL  string
	LogLevel   string
	Address    int
	NetworkID  int
}

// Register binds the flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to YAML configuration file")
	fs.StringVar(&f.DeviceURL, "device", "", "Device URL (supported schema: serial, tcp)")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.IntVar(&f.Address, "address", -1, "Node address (1-254)")
	fs.IntVar(&f.NetworkID, "network", -1, "Network id (1-254)")
}

// Load reads the configuration file if one was given and applies the overrides.
func (f *Flags) Load() (Config, error) {
	cfg := Default()
	if f.ConfigPath != "" {
		var err error
		if cfg, err = Load(f.ConfigPath); err != nil {
			return Config{}, err
		}
	}

	if f.DeviceURL != "" {
		cfg.Device.URL = f.DeviceURL
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.Address >= 0 {
		cfg.Node.Address = f.Address
	}
	if f.NetworkID >= 0 {
		cfg.Node.NetworkID = f.NetworkID
	}
	return cfg, cfg.Validate()
}
