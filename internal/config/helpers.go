package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vshulcz/enginestats/internal/misc"
)

// Every setting resolves as ENV > CLI flag > default. A set but unusable
// environment value falls through to the next source.

func env(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

// FromEnvOrFlag resolves a string setting; blank values count as unset.
func FromEnvOrFlag(envKey, flagVal, def string) string {
	if v, ok := env(envKey); ok {
		return v
	}
	if v := strings.TrimSpace(flagVal); v != "" {
		return v
	}
	return def
}

// FromEnvOrFlagBool lets a set environment variable override the flag in both directions.
func FromEnvOrFlagBool(envKey string, flagVal, def bool) bool {
	if _, ok := env(envKey); ok {
		return misc.GetBool(envKey, def)
	}
	return flagVal || def
}

// FromEnvOrFlagInt ignores values below minVal; a zero flag means unset.
func FromEnvOrFlagInt(envKey string, flagVal, def, minVal int) int {
	if v, ok := env(envKey); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= minVal {
			return n
		}
	}
	if flagVal != 0 && flagVal >= minVal {
		return flagVal
	}
	return def
}

// FromEnvOrFlagDuration takes the flag in seconds, flagSentinel meaning unset.
// The bool reports whether the value came from ENV or CLI.
func FromEnvOrFlagDuration(envKey string, flagSeconds, flagSentinel, defSeconds int) (time.Duration, bool) {
	if v, ok := env(envKey); ok {
		if d, err := misc.ParseSeconds(v); err == nil {
			return d, true
		}
	}
	if flagSeconds != flagSentinel {
		return time.Duration(flagSeconds) * time.Second, true
	}
	return time.Duration(defSeconds) * time.Second, false
}
