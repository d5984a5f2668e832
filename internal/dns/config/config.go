package config

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from defaults, environment
// variables and command line overrides, in that order of precedence.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Address is the IP or hostname both listeners bind to.
	Address string `koanf:"address" validate:"required,hostname_or_ip"`

	// Port is the network port the DNS server will bind to, for UDP and TCP.
	Port int `koanf:"port" validate:"required,gte=1,lte=65535"`

	// ZoneFile is the path of the zone mapping file.
	ZoneFile string `koanf:"zone_file" validate:"required"`

	// TTL is stamped on every record served.
	TTL uint32 `koanf:"ttl" validate:"lte=2147483647"`

	// MaxInflight bounds concurrent UDP handlers and open TCP connections.
	MaxInflight int `koanf:"max_inflight" validate:"gte=1"`

	// TCPReadTimeout bounds the wait for a TCP query; 0 disables it.
	TCPReadTimeout time.Duration `koanf:"tcp_read_timeout" validate:"gte=0"`

	// ShutdownTimeout is how long in-flight requests get after a stop signal.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`

	// MatchCacheSize is the number of query names whose zone match is cached; 0 disables it.
	MatchCacheSize int `koanf:"match_cache_size" validate:"gte=0"`
}

// ListenAddr returns Address and Port as a host:port string.
func (c *AppConfig) ListenAddr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// DEFAULT_APP_CONFIG defines the default application configuration settings.
// Port and ZoneFile have no default and must come from the environment or
// the command line.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:             "prod",
	LogLevel:        "info",
	Address:         "127.0.0.1",
	TTL:             300,
	MaxInflight:     1024,
	TCPReadTimeout:  10 * time.Second,
	ShutdownTimeout: 5 * time.Second,
	MatchCacheSize:  4096,
}

// validHostOrIP accepts an IP literal or an RFC 1123 hostname.
func validHostOrIP(v *validator.Validate) validator.Func {
	return func(fl validator.FieldLevel) bool {
		addr := fl.Field().String()
		if addr == "" {
			return false
		}
		if _, err := netip.ParseAddr(addr); err == nil {
			return true
		}
		return v.Var(addr, "hostname_rfc1123") == nil
	}
}

// envLoader loads environment variables with the prefix "DNS_", lowercasing
// the keys and removing the prefix. It can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "DNS_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "DNS_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// overrideLoader loads command line values keyed like the koanf tags.
var overrideLoader = func(k *koanf.Koanf, overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	return k.Load(confmap.Provider(overrides, "."), nil)
}

// registerValidation registers the custom "hostname_or_ip" tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("hostname_or_ip", validHostOrIP(v))
}

// Load builds an AppConfig from defaults, then the environment, then
// overrides, and validates the result.
func Load(overrides map[string]any) (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	if err := overrideLoader(k, overrides); err != nil {
		return nil, fmt.Errorf("error loading overrides: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
