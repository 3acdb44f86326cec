package config

import "time"

// Config holds runtime settings for the cashcare CLI.
type Config struct {
	ServerEndpointAddr string
	// DataDir is relative to the working directory.
	DataDir        string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DataDir = ".cashcare"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig applies defaults, then the JSON file named in args (if any),
// then flags from args.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
