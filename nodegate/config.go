package nodegate

import (
	"errors"
	"time"
)

// Config holds the dispatch core's tunables. It is validated once, the way
// the teacher's Configure* helpers validate a single field at a time, but
// without the teacher's surrounding text-config-language parser: that
// parser belongs to the external ServerConfig collaborator (spec.md §6),
// not to this core.
type Config struct {
	// IdleTimeout holds an idle interval for client connections. Conn does
	// not read it and does not start an IdleTimeoutMonitor; the monitor takes
	// its interval from NewIdleTimeoutMonitor's argument.
	IdleTimeout time.Duration
	// RequestTimeout holds a per-request deadline. Conn does not read it:
	// the deadline comes from the RequestTimeoutPolicy passed to NewConn,
	// e.g. FixedTimeoutPolicy(cfg.RequestTimeout), where zero means none.
	RequestTimeout time.Duration
	// MaxStreamsPerConn caps requests served over one connection before it
	// is latched to close-after-response. Zero means unlimited.
	MaxStreamsPerConn int32
	// LoggerSign selects a Logger registered via RegisterLogger when a Conn
	// is constructed without an explicit Logger. Empty means discard.
	LoggerSign string
}

// Option mutates a Config during construction.
type Option func(*Config) error

// WithIdleTimeout sets IdleTimeout. A negative value is rejected.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return errors.New("nodegate: idleTimeout must not be negative")
		}
		c.IdleTimeout = d
		return nil
	}
}

// WithRequestTimeout sets RequestTimeout. A negative value is rejected.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return errors.New("nodegate: requestTimeout must not be negative")
		}
		c.RequestTimeout = d
		return nil
	}
}

// WithMaxStreamsPerConn sets MaxStreamsPerConn. A negative value is rejected.
func WithMaxStreamsPerConn(n int32) Option {
	return func(c *Config) error {
		if n < 0 {
			return errors.New("nodegate: maxStreamsPerConn must not be negative")
		}
		c.MaxStreamsPerConn = n
		return nil
	}
}

// WithLoggerSign sets LoggerSign.
func WithLoggerSign(sign string) Option {
	return func(c *Config) error {
		c.LoggerSign = sign
		return nil
	}
}

// defaultConfig mirrors the teacher's defaults for the nearest analogous
// fields (readTimeout/writeTimeout default to 60s in web_server.go; idle
// connections there are never actively timed out, so nodegate's own
// IdleTimeout default is spec.md's example value of 0, i.e. disabled, left
// to the caller to opt into).
func defaultConfig() Config {
	return Config{
		IdleTimeout:       0,
		RequestTimeout:    0,
		MaxStreamsPerConn: 0,
		LoggerSign:        "",
	}
}

// NewConfig builds a validated Config from defaults plus opts.
func NewConfig(opts ...Option) (Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
