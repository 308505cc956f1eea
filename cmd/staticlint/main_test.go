package main

import (
	"testing"

	"golang.org/x/tools/go/analysis"
)

func TestFilterAnalyzers(t *testing.T) {
	all := []*analysis.Analyzer{
		{Name: "printf"},
		{Name: "SA1000"},
		{Name: "metrickey"},
	}
	tests := []struct {
		name     string
		disabled string
		want     []string
	}{
		{"nothing disabled", "", []string{"printf", "SA1000", "metrickey"}},
		{"one disabled", "SA1000", []string{"printf", "metrickey"}},
		{"spaces and unknown names", " printf , nope ,", []string{"SA1000", "metrickey"}},
		{"everything disabled", "printf,SA1000,metrickey", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterAnalyzers(all, tt.disabled)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d analyzers, want %d", len(got), len(tt.want))
			}
			for i, a := range got {
				if a.Name != tt.want[i] {
					t.Errorf("analyzer %d = %s, want %s", i, a.Name, tt.want[i])
				}
			}
		})
	}
}

func TestSuite(t *testing.T) {
	names := make(map[string]int)
	var sa int
	for _, a := range suite() {
		names[a.Name]++
		if len(a.Name) > 2 && a.Name[:2] == "SA" {
			sa++
		}
	}
	for _, want := range []string{"printf", "ST1000", "nilerr", "forcetypeassert", "osexitmain", "metrickey"} {
		if names[want] != 1 {
			t.Errorf("%s registered %d times, want once", want, names[want])
		}
	}
	if names["ST1003"] != 0 {
		t.Error("only ST1000 of the style checks should run")
	}
	if sa == 0 {
		t.Error("no staticcheck SA analyzers registered")
	}
}
