package submission

import (
	"net/url"
	"time"
)

// Config holds the HTTP settings of a Client.
type Config struct {
	// Endpoint is the document creation URL. Defaults to DefaultEndpoint.
	Endpoint string

	// Token is sent as a Bearer credential when non-empty.
	Token string

	// Timeout bounds one HTTP exchange. It does not include admission wait.
	Timeout time.Duration

	UserAgent string

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// DefaultConfig returns the client defaults.
func DefaultConfig() Config {
	return Config{
		Endpoint:            DefaultEndpoint,
		Timeout:             30 * time.Second,
		UserAgent:           "docgate",
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Endpoint == "" {
		c.Endpoint = d.Endpoint
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = d.MaxIdleConns
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = d.MaxIdleConnsPerHost
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = d.IdleConnTimeout
	}
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return &ConfigError{Field: "endpoint", Message: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Field: "endpoint", Message: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ConfigError{Field: "endpoint", Message: "host is required"}
	}
	if c.Timeout < 0 {
		return &ConfigError{Field: "timeout", Message: "must not be negative"}
	}
	if c.MaxIdleConns < 0 || c.MaxIdleConnsPerHost < 0 {
		return &ConfigError{Field: "max_idle_conns", Message: "must not be negative"}
	}
	return nil
}
