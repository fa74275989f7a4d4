// Package log provides secure logging functionality with automatic
// sanitization of sensitive information, built on top of the standard
// slog package.
//
// Audits may carry a platform API bearer token, and request URLs and
// headers flow through debug logging. The SecureHandler masks anything
// that looks like a credential so a shared or stored log never leaks it,
// even in verbose mode.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("existence probe",
//	    "authorization", "Bearer abc123",  // Will be masked
//	    "url", "https://twitter.com/i/web/status/123",
//	)
//
//	slog.SetDefault(logger)
package log
