package config

// Embedded API keys injected at build time via ldflags.
// The value serves as the default and can be overridden by environment
// variables or the config file.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/popcorn/popcorn/internal/config.EmbeddedTMDBKey=xxx'"
var EmbeddedTMDBKey string

// Version is the application version, overridden at build time.
var Version = "0.1.0-dev"
