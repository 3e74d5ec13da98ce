// Package env reads process environment variables with this service's
// BODENHAUS_ prefix convention.
package env

import "os"

const prefix = "BODENHAUS_"

// Get returns the value of the given environment variable or a fallback.
// The prefixed form wins over the bare name, so BODENHAUS_LOG_FORMAT
// overrides LOG_FORMAT when both are set.
func Get(key, fallback string) string {
	if val := os.Getenv(prefix + key); val != "" {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
