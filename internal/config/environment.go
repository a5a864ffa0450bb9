package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables overriding config file values
const (
	EnvAddr          = "WIFIUTILS_ADDR"
	EnvDBPath        = "WIFIUTILS_DB"
	EnvInterface     = "WIFIUTILS_INTERFACE"
	EnvAPStateOffset = "WIFIUTILS_AP_STATE_OFFSET"
)

// ApplyEnv overrides config values from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvDBPath); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup(EnvInterface); ok && v != "" {
		c.Inspector.Interface = v
	}
	if v, ok := lookup(EnvAPStateOffset); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAPStateOffset, err)
		}
		c.Inspector.APStateOffset = b
	}
	return nil
}
