// Package config holds the server's resolved configuration: the workspace
// root and the recognized initializationOptions keys, populated directly
// from the client's InitializeParams.
package config

import "strings"

// DiagnosticsMode selects which diagnostic set the server produces.
type DiagnosticsMode string

const (
	DiagnosticsOff           DiagnosticsMode = "off"
	DiagnosticsSyntaxOnly    DiagnosticsMode = "syntax-only"
	DiagnosticsBasicSemantic DiagnosticsMode = "basic-semantic"
)

// LogLevel mirrors the initializationOptions logLevel filter.
type LogLevel string

const (
	LogError LogLevel = "error"
	LogWarn  LogLevel = "warn"
	LogInfo  LogLevel = "info"
	LogDebug LogLevel = "debug"
	LogTrace LogLevel = "trace"
)

// Config is the server's resolved configuration for the current workspace.
type Config struct {
	WorkspaceRoot string

	PHPVersion      string
	DiagnosticsMode DiagnosticsMode
	ComposerEnabled bool
	IndexVendor     bool
	StubExtensions  []string
	StubsPath       string
	LogLevel        LogLevel
}

// New returns a Config with sane defaults for before InitializeParams
// arrives: semantic diagnostics on, Composer autoloading on, vendor lazily
// indexed, default log level warn.
func New() *Config {
	return &Config{
		DiagnosticsMode: DiagnosticsBasicSemantic,
		ComposerEnabled: true,
		IndexVendor:     false,
		LogLevel:        LogWarn,
	}
}

// ApplyInitializationOptions reads the recognized initializationOptions
// keys out of the raw value InitializeParams carries (an untyped any, since
// the protocol leaves its shape to the server).
func (c *Config) ApplyInitializationOptions(raw any) {
	m, ok := raw.(map[string]any)
	if !ok {
		return
	}
	if v, ok := stringOpt(m, "phpVersion"); ok {
		c.PHPVersion = v
	}
	if v, ok := stringOpt(m, "diagnosticsMode"); ok {
		switch DiagnosticsMode(v) {
		case DiagnosticsOff, DiagnosticsSyntaxOnly, DiagnosticsBasicSemantic:
			c.DiagnosticsMode = DiagnosticsMode(v)
		}
	}
	if v, ok := boolOpt(m, "composerEnabled"); ok {
		c.ComposerEnabled = v
	}
	if v, ok := boolOpt(m, "indexVendor"); ok {
		c.IndexVendor = v
	}
	if v, ok := stringSliceOpt(m, "stubExtensions"); ok {
		c.StubExtensions = v
	}
	if v, ok := stringOpt(m, "stubsPath"); ok {
		c.StubsPath = v
	}
	if v, ok := stringOpt(m, "logLevel"); ok {
		switch LogLevel(strings.ToLower(v)) {
		case LogError, LogWarn, LogInfo, LogDebug, LogTrace:
			c.LogLevel = LogLevel(strings.ToLower(v))
		}
	}
}

func stringOpt(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func boolOpt(m map[string]any, key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func stringSliceOpt(m map[string]any, key string) ([]string, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, true
}
