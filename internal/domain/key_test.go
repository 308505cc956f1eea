package domain

import "testing"

func TestMetricKey(t *testing.T) {
	tests := []struct {
		name      string
		key       MetricKey
		wantStr   string
		wantValid bool
	}{
		{"global measure", Key("search", "time"), "search.time", true},
		{"engine counter", Key("bing", "error", "timeout"), "bing.error.timeout", true},
		{"four parts", Key("a", "b", "c", "d"), "a.b.c.d", true},
		{"single part", Key("score"), "score", false},
		{"five parts", Key("a", "b", "c", "d", "e"), "a.b.c.d.e", false},
		{"empty part", Key("bing", ""), "bing.", false},
		{"dotted part", Key("bing.com", "score"), "bing.com.score", false},
		{"nil", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
			if got := tt.key.Valid(); got != tt.wantValid {
				t.Errorf("Valid() = %v, want %v", got, tt.wantValid)
			}
		})
	}
}

func TestParseKey(t *testing.T) {
	if k := ParseKey("  "); k != nil {
		t.Fatalf("blank key parsed to %v", k)
	}
	k := ParseKey("wikipedia.time.total")
	if len(k) != 3 || k[0] != "wikipedia" || k[2] != "total" {
		t.Fatalf("ParseKey = %v", k)
	}
	if k.String() != "wikipedia.time.total" {
		t.Fatalf("round trip = %q", k.String())
	}
}
