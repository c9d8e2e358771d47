// Package env provides raw environment lookups for the few callers that run
// before the typed config is loaded, such as the logger bootstrap.
package env

import "os"

// Get reads key from the process environment, treating unset and empty the
// same and returning fallback for both.
func Get(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
