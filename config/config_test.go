package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
interface = "eth0"
entity_id = "0x0011223344556677"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendPcap {
		t.Fatalf("expected default backend pcap, got %v", cfg.Backend)
	}
	if cfg.DiscoveryInterval.Duration() != defaultDiscoveryInterval {
		t.Fatalf("expected default discovery interval, got %v", cfg.DiscoveryInterval.Duration())
	}
	if cfg.AemRetries != defaultAemRetries {
		t.Fatalf("expected default aem retries, got %v", cfg.AemRetries)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %v", cfg.LogLevel)
	}
}

func TestLoadRejectsMissingInterface(t *testing.T) {
	path := writeConfig(t, `entity_id = "0x0011223344556677"`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing interface")
	}
}

func TestLoadRejectsInvalidEntityID(t *testing.T) {
	path := writeConfig(t, `
interface = "eth0"
entity_id = "0x0000000000000000"
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for zero entity_id")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
interface = "eth0"
entity_id = "0x0011223344556677"
backend = "carrier-pigeon"
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadParsesToleranceAndTimings(t *testing.T) {
	path := writeConfig(t, `
interface = "eth0"
entity_id = "0x0011223344556677"
backend = "rawsocket"
discovery_interval = "5s"
aem_timeout = "500ms"
aem_retries = 3
acmp_timeout = "1s"

[tolerance]
accept_invalid_non_success_response = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendRawSocket {
		t.Fatalf("expected rawsocket backend, got %v", cfg.Backend)
	}
	if cfg.DiscoveryInterval.Duration().String() != "5s" {
		t.Fatalf("expected 5s discovery interval, got %v", cfg.DiscoveryInterval.Duration())
	}
	if cfg.AemRetries != 3 {
		t.Fatalf("expected 3 aem retries, got %v", cfg.AemRetries)
	}
	if !cfg.Tolerance.Flags().AcceptInvalidNonSuccessResponse {
		t.Fatalf("expected tolerance flag to be set")
	}
}
