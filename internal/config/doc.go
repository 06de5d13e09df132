// Package config defines configuration structures for the safeget CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (SAFEGET_ prefix)
//   - YAML configuration file
//
// Sources are applied in that order of precedence: flags override
// environment variables, which override the file, which overrides the
// built-in defaults.
//
// # Structure
//
//	type Config struct {
//	    OutputDir string
//	    BaseURL   string
//	    BlockSize int64
//	    Workers   int
//	    Verbosity int
//	    Progress  bool
//	    Timeout   time.Duration
//	    Retry     RetryConfig
//	}
//
//	type RetryConfig struct {
//	    Attempts   int
//	    Backoff    time.Duration
//	    MaxBackoff time.Duration
//	}
package config
