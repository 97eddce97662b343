package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvString reads a string override from the environment.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer override from the environment.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}
