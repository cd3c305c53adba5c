package utils

import (
	"log"
	"os"
	"strconv"
	"time"
)

// lookupEnv parses key with parse. Unset keys and values that fail to parse
// fall back to defaultVal; the latter are logged so a typo in a deployment
// does not go unnoticed.
func lookupEnv[T any](key string, defaultVal T, parse func(string) (T, error)) T {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal
	}
	result, err := parse(value)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q: %v", key, value, err)
		return defaultVal
	}
	return result
}

func GetEnvAsInt(key string, defaultVal int) int {
	return lookupEnv(key, defaultVal, strconv.Atoi)
}

func GetEnvAsUint64(key string, defaultVal uint64) uint64 {
	return lookupEnv(key, defaultVal, func(s string) (uint64, error) {
		return strconv.ParseUint(s, 10, 64)
	})
}

// GetEnvAsDuration accepts Go durations ("90s", "5m") or a bare number of seconds.
func GetEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	return lookupEnv(key, defaultVal, func(s string) (time.Duration, error) {
		if secs, err := strconv.Atoi(s); err == nil {
			return time.Duration(secs) * time.Second, nil
		}
		return time.ParseDuration(s)
	})
}

func GetEnvAsBool(key string, defaultVal bool) bool {
	return lookupEnv(key, defaultVal, strconv.ParseBool)
}

func GetEnvAsString(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
