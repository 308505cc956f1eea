package domain

import "strings"

// GlobalSubject is the first key part of the measures that describe whole
// searches. No engine may use it as its name.
const GlobalSubject = "search"

// Engine describes one search backend known to the aggregator.
type Engine struct {
	Name       string   `json:"name" yaml:"name"`
	Shortcut   string   `json:"shortcut,omitempty" yaml:"shortcut"`
	Categories []string `json:"categories,omitempty" yaml:"categories"`
	Disabled   bool     `json:"disabled,omitempty" yaml:"disabled"`
}

// ValidEngineName reports whether name can head the per-engine keys without
// colliding with another engine's or the global keys.
func ValidEngineName(name string) bool {
	return name != "" && name != GlobalSubject && !strings.Contains(name, ".")
}
