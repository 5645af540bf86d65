// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (tokens, sessions, phone numbers)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, X-Api-Key)
//   - Gateway bearer tokens and API credentials
//   - Account phone numbers and session strings
//   - Proxy URLs with embedded credentials
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of account credentials in logs that may be shared or stored.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("gateway connected",
//	    "gateway_token", "abc123",  // Will be sanitized to "***REDACTED***"
//	    "url", "http://127.0.0.1:8081",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
