// Package logging provides structured logging for Lumen Hub Core.
//
// It wraps log/slog with a JSON or text handler and attaches the service
// name and version to every entry.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log bearer tokens or bridge usernames; both grant device control.
package logging
