package l2cache

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Property names understood by ParseProperties.
const (
	PropDefaultExpiry     = "redis.expiryInSeconds.default"
	PropRegionExpiry      = "redis.expiryInSeconds." // + region name
	PropDefaultAccessType = "l2cache.default_access_type"
	PropRegionAccessType  = "l2cache.access_type." // + region name
	PropLockTimeout       = "l2cache.lock_timeout_seconds"
	PropDisabled          = "l2cache.disabled"
	PropKeyPrefix         = "l2cache.key_prefix"
)

// Config holds the settings a RegionFactory applies to the regions it builds.
// It is captured when a region is built and never consulted again.
type Config struct {
	// Disabled turns every region into a no-op.
	Disabled bool

	// KeyPrefix is prepended to every region name in the store.
	KeyPrefix string

	// DefaultExpiration applies to regions without an entry in
	// RegionExpiration. 0 => entries never expire.
	DefaultExpiration time.Duration
	RegionExpiration  map[string]time.Duration

	// Default: nonstrict-read-write.
	DefaultAccessType AccessType
	RegionAccessType  map[string]AccessType

	// Default: 60s.
	LockTimeout time.Duration
}

// DefaultConfig returns the settings used when nothing is configured:
// 120s expiration, nonstrict-read-write, 60s lock timeout.
func DefaultConfig() Config {
	return Config{
		DefaultExpiration: defaultExpiration,
		DefaultAccessType: defaultAccessType,
		LockTimeout:       defaultLockTimeout,
	}
}

// ExpirationFor returns the entry TTL of region.
func (c Config) ExpirationFor(region string) time.Duration {
	if d, ok := c.RegionExpiration[region]; ok {
		return d
	}
	return c.DefaultExpiration
}

// AccessTypeFor returns the access type of region.
func (c Config) AccessTypeFor(region string) AccessType {
	if at, ok := c.RegionAccessType[region]; ok {
		return at
	}
	return coalesce(c.DefaultAccessType, defaultAccessType)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.DefaultExpiration < 0 {
		return &ConfigError{Field: "default expiration", Value: c.DefaultExpiration.String(), Err: ErrNegativeExpiration}
	}
	for region, d := range c.RegionExpiration {
		if d < 0 {
			return &ConfigError{Field: "expiration of region " + region, Value: d.String(), Err: ErrNegativeExpiration}
		}
	}
	if c.LockTimeout < 0 {
		return &ConfigError{Field: "lock timeout", Value: c.LockTimeout.String(), Err: ErrNegativeExpiration}
	}
	if c.DefaultAccessType != "" {
		if _, err := ParseAccessType(string(c.DefaultAccessType)); err != nil {
			return err
		}
	}
	for _, at := range c.RegionAccessType {
		if _, err := ParseAccessType(string(at)); err != nil {
			return err
		}
	}
	return nil
}

// ParseProperties builds a Config from flat key/value properties on top of
// DefaultConfig. Keys it doesn't know are ignored.
//
//	redis.expiryInSeconds.default=120
//	redis.expiryInSeconds.app.User=300
//	l2cache.access_type.app.User=read-write
func ParseProperties(props map[string]string) (Config, error) {
	cfg := DefaultConfig()
	for k, v := range props {
		var err error
		switch {
		case k == PropDefaultExpiry:
			cfg.DefaultExpiration, err = parseSeconds(k, v)
		case strings.HasPrefix(k, PropRegionExpiry):
			var d time.Duration
			if d, err = parseSeconds(k, v); err == nil {
				cfg.RegionExpiration = put(cfg.RegionExpiration, strings.TrimPrefix(k, PropRegionExpiry), d)
			}
		case k == PropDefaultAccessType:
			cfg.DefaultAccessType, err = ParseAccessType(v)
		case strings.HasPrefix(k, PropRegionAccessType):
			var at AccessType
			if at, err = ParseAccessType(v); err == nil {
				cfg.RegionAccessType = put(cfg.RegionAccessType, strings.TrimPrefix(k, PropRegionAccessType), at)
			}
		case k == PropLockTimeout:
			cfg.LockTimeout, err = parseSeconds(k, v)
		case k == PropDisabled:
			cfg.Disabled, err = strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				err = &ConfigError{Field: k, Value: v, Err: err}
			}
		case k == PropKeyPrefix:
			cfg.KeyPrefix = v
		}
		if err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func parseSeconds(field, v string) (time.Duration, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, &ConfigError{Field: field, Value: v, Err: err}
	}
	if n < 0 {
		return 0, &ConfigError{Field: field, Value: v, Err: ErrNegativeExpiration}
	}
	return time.Duration(n) * time.Second, nil
}

func put[T any](m map[string]T, k string, v T) map[string]T {
	if m == nil {
		m = make(map[string]T)
	}
	m[k] = v
	return m
}

type yamlScoped struct {
	Default *int64           `yaml:"default"`
	Regions map[string]int64 `yaml:"regions"`
}

type yamlAccess struct {
	Default string            `yaml:"default"`
	Regions map[string]string `yaml:"regions"`
}

type yamlConfig struct {
	Disabled           bool       `yaml:"disabled"`
	KeyPrefix          string     `yaml:"key_prefix"`
	ExpirySeconds      yamlScoped `yaml:"expiry_seconds"`
	AccessType         yamlAccess `yaml:"access_type"`
	LockTimeoutSeconds *int64     `yaml:"lock_timeout_seconds"`
}

// LoadConfig reads a YAML document on top of DefaultConfig:
//
//	disabled: false
//	key_prefix: "app:"
//	expiry_seconds:
//	  default: 120
//	  regions:
//	    app.User: 300
//	access_type:
//	  default: nonstrict-read-write
//	  regions:
//	    app.User: read-write
//	lock_timeout_seconds: 60
//
// Unknown fields are an error. An empty document yields DefaultConfig.
func LoadConfig(r io.Reader) (Config, error) {
	var yc yamlConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&yc); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &ConfigError{Field: "yaml", Err: err}
	}

	cfg := DefaultConfig()
	cfg.Disabled = yc.Disabled
	cfg.KeyPrefix = yc.KeyPrefix

	if yc.ExpirySeconds.Default != nil {
		d, err := seconds("expiry_seconds.default", *yc.ExpirySeconds.Default)
		if err != nil {
			return Config{}, err
		}
		cfg.DefaultExpiration = d
	}
	for region, n := range yc.ExpirySeconds.Regions {
		d, err := seconds("expiry_seconds.regions."+region, n)
		if err != nil {
			return Config{}, err
		}
		cfg.RegionExpiration = put(cfg.RegionExpiration, region, d)
	}

	if yc.AccessType.Default != "" {
		at, err := ParseAccessType(yc.AccessType.Default)
		if err != nil {
			return Config{}, err
		}
		cfg.DefaultAccessType = at
	}
	for region, s := range yc.AccessType.Regions {
		at, err := ParseAccessType(s)
		if err != nil {
			return Config{}, err
		}
		cfg.RegionAccessType = put(cfg.RegionAccessType, region, at)
	}

	if yc.LockTimeoutSeconds != nil {
		d, err := seconds("lock_timeout_seconds", *yc.LockTimeoutSeconds)
		if err != nil {
			return Config{}, err
		}
		cfg.LockTimeout = d
	}
	return cfg, nil
}

func seconds(field string, n int64) (time.Duration, error) {
	if n < 0 {
		return 0, &ConfigError{Field: field, Value: strconv.FormatInt(n, 10), Err: ErrNegativeExpiration}
	}
	return time.Duration(n) * time.Second, nil
}
