package logging

import (
	"path/filepath"
	"testing"
)

func TestNewStdoutOnly(t *testing.T) {
	logger, err := New("debug", FileConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Sync()

	if !logger.Core().Enabled(-1) {
		t.Fatalf("expected debug level to be enabled")
	}
}

func TestNewWithFileRotation(t *testing.T) {
	dir := t.TempDir()
	logger, err := New("info", FileConfig{Filename: filepath.Join(dir, "avdecc.log"), MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Sync()

	logger.Info("hello")

	if logger.Core().Enabled(-1) {
		t.Fatalf("expected debug level to be disabled at info level")
	}
}

func TestNewDefaultsUnknownLevelToInfo(t *testing.T) {
	logger, err := New("bogus", FileConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Sync()

	if logger.Core().Enabled(-1) {
		t.Fatalf("expected unknown level to default to info")
	}
}
