// Package buildinfo carries the version stamped into binaries at link time.
package buildinfo

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Info is set with -ldflags "-X main.buildVersion=... -X main.buildDate=... -X main.buildCommit=...".
type Info struct {
	Version string
	Date    string
	Commit  string
}

func na(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

// Print writes the three build lines to w.
func (i Info) Print(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Build version: %s\n", na(i.Version))
	_, _ = fmt.Fprintf(w, "Build date: %s\n", na(i.Date))
	_, _ = fmt.Fprintf(w, "Build commit: %s\n", na(i.Commit))
}

// Fields returns the build info as structured log fields.
func (i Info) Fields() []zap.Field {
	return []zap.Field{
		zap.String("version", na(i.Version)),
		zap.String("build_date", na(i.Date)),
		zap.String("commit", na(i.Commit)),
	}
}
