package domain

import "strings"

const keySep = "."

// MetricKey identifies a single measure or counter: subject, category and optional kinds.
type MetricKey []string

// Key builds a MetricKey from its components.
func Key(parts ...string) MetricKey {
	return MetricKey(parts)
}

// ParseKey splits a dotted key back into its components.
func ParseKey(s string) MetricKey {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return MetricKey(strings.Split(s, keySep))
}

// String joins the components with dots, e.g. "wikipedia.time.total".
func (k MetricKey) String() string {
	return strings.Join(k, keySep)
}

// Valid reports whether the key has between two and four non-empty components.
func (k MetricKey) Valid() bool {
	if len(k) < 2 || len(k) > 4 {
		return false
	}
	for _, p := range k {
		if strings.TrimSpace(p) == "" || strings.Contains(p, keySep) {
			return false
		}
	}
	return true
}
