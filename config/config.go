// Package config loads controller boot configuration from TOML, following
// the same custom-UnmarshalTOML-plus-validating-Load shape the teacher uses
// for its channel mappings.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gopatchy/avdecc/avdeccid"
	"github.com/gopatchy/avdecc/protocol"
)

// Backend selects which transport.ProtocolInterface implementation to use.
type Backend string

const (
	BackendPcap      Backend = "pcap"
	BackendRawSocket Backend = "rawsocket"
)

// EntityID is a UniqueID that unmarshals from a TOML string like
// "0x0011223344556677".
type EntityID avdeccid.UniqueID

func (e *EntityID) UnmarshalTOML(data interface{}) error {
	s, ok := data.(string)
	if !ok {
		return fmt.Errorf("entity_id must be a hex string, got %T", data)
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return fmt.Errorf("invalid entity_id %q: %w", s, err)
	}
	*e = EntityID(v)
	return nil
}

// Duration unmarshals from a TOML string like "250ms" or "10s".
type Duration time.Duration

func (d *Duration) UnmarshalTOML(data interface{}) error {
	s, ok := data.(string)
	if !ok {
		return fmt.Errorf("duration must be a string, got %T", data)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Tolerance mirrors protocol.ToleranceFlags for TOML unmarshaling.
type Tolerance struct {
	AcceptInvalidControlDataLength  bool `toml:"accept_invalid_control_data_length"`
	AcceptInvalidNonSuccessResponse bool `toml:"accept_invalid_non_success_response"`
	AcceptOversizeAecpIn            bool `toml:"accept_oversize_aecp_in"`
	AcceptOversizeAecpOut           bool `toml:"accept_oversize_aecp_out"`
	AcceptMissingMappingDescriptors bool `toml:"accept_missing_mapping_descriptors"`
}

func (t Tolerance) Flags() protocol.ToleranceFlags {
	return protocol.ToleranceFlags{
		AcceptInvalidControlDataLength:  t.AcceptInvalidControlDataLength,
		AcceptInvalidNonSuccessResponse: t.AcceptInvalidNonSuccessResponse,
		AcceptOversizeAecpIn:            t.AcceptOversizeAecpIn,
		AcceptOversizeAecpOut:           t.AcceptOversizeAecpOut,
		AcceptMissingMappingDescriptors: t.AcceptMissingMappingDescriptors,
	}
}

// Config is the controller's boot configuration.
type Config struct {
	Interface string   `toml:"interface"`
	Backend   Backend  `toml:"backend"`
	EntityID  EntityID `toml:"entity_id"`

	DiscoveryInterval Duration `toml:"discovery_interval"`
	AemTimeout        Duration `toml:"aem_timeout"`
	AemRetries        int      `toml:"aem_retries"`
	AcmpTimeout       Duration `toml:"acmp_timeout"`

	Tolerance Tolerance `toml:"tolerance"`

	LogLevel string `toml:"log_level"`
}

const (
	defaultDiscoveryInterval = 10 * time.Second
	defaultAemTimeout        = 250 * time.Millisecond
	defaultAemRetries        = 2
	defaultAcmpTimeout       = 2 * time.Second
)

// Load reads and validates a TOML configuration file, filling defaults for
// any timing field left at zero.
func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Interface == "" {
		return nil, fmt.Errorf("config: interface must be set")
	}

	switch cfg.Backend {
	case "":
		cfg.Backend = BackendPcap
	case BackendPcap, BackendRawSocket:
	default:
		return nil, fmt.Errorf("config: unknown backend %q", cfg.Backend)
	}

	if !avdeccid.UniqueID(cfg.EntityID).IsValid() {
		return nil, fmt.Errorf("config: entity_id must be set to a non-zero, non-broadcast value")
	}

	if cfg.DiscoveryInterval.Duration() <= 0 {
		cfg.DiscoveryInterval = Duration(defaultDiscoveryInterval)
	}
	if cfg.AemTimeout.Duration() <= 0 {
		cfg.AemTimeout = Duration(defaultAemTimeout)
	}
	if cfg.AemRetries <= 0 {
		cfg.AemRetries = defaultAemRetries
	}
	if cfg.AcmpTimeout.Duration() <= 0 {
		cfg.AcmpTimeout = Duration(defaultAcmpTimeout)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return &cfg, nil
}
