// Package config resolves the server settings from the environment and command-line flags.
package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	defaultListenAndServeAddr = ":8080"
	defaultLanguage           = "en"
	defaultShutdownTimeout    = 10
	defaultStoreInterval      = 300
)

// ServerConfig holds everything cmd/server needs to start.
type ServerConfig struct {
	Address         string
	DSN             string
	EnginesFile     string
	Language        language.Tag
	Key             string
	AuditFile       string
	AuditURL        string
	ShutdownTimeout time.Duration

	// File, StoreInterval and Restore only apply to the in-memory store.
	File          string
	StoreInterval time.Duration
	Restore       bool
}

// LoadServerConfig resolves every setting as ENV > CLI > defaults.
func LoadServerConfig(args []string, out io.Writer) (ServerConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(out)

	var (
		addrOpt     string
		dsnOpt      string
		enginesOpt  string
		langOpt     string
		keyOpt      string
		auditFile   string
		auditURL    string
		shutdownOpt int
		fileOpt     string
		ivalOpt     int
		restoreOpt  bool
	)
	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("HTTP listen address, default: %s", defaultListenAndServeAddr))
	fs.StringVar(&dsnOpt, "d", "", "DATABASE_DSN for Postgres, empty keeps statistics in memory")
	fs.StringVar(&enginesOpt, "e", "", "ENGINES_FILE with the YAML engine list, empty uses the built-in list")
	fs.StringVar(&langOpt, "l", "", fmt.Sprintf("default LANGUAGE of chart labels, default: %s", defaultLanguage))
	fs.StringVar(&keyOpt, "k", "", "KEY used to sign request and response bodies")
	fs.StringVar(&auditFile, "audit-file", "", "AUDIT_FILE receiving one JSON line per ingested batch")
	fs.StringVar(&auditURL, "audit-url", "", "AUDIT_URL receiving ingested batch events")
	fs.IntVar(&shutdownOpt, "t", -1, fmt.Sprintf("SHUTDOWN_TIMEOUT seconds, default: %d", defaultShutdownTimeout))

	fs.StringVar(&fileOpt, "f", "", "FILE_STORAGE_PATH for memory snapshots, empty disables them")
	fs.IntVar(&ivalOpt, "i", -1, fmt.Sprintf("STORE_INTERVAL seconds between snapshots (0 - on shutdown only), default: %d", defaultStoreInterval))
	fs.BoolVar(&restoreOpt, "r", false, "RESTORE the snapshot on start")

	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	addr := normalizeListenAndServeURL(FromEnvOrFlag("ADDRESS", addrOpt, defaultListenAndServeAddr))
	if _, port, err := net.SplitHostPort(addr); err != nil || port == "" {
		return ServerConfig{}, fmt.Errorf("invalid listen address: %q", addr)
	}

	rawLang := FromEnvOrFlag("LANGUAGE", langOpt, defaultLanguage)
	tag, err := language.Parse(rawLang)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("invalid language %q: %w", rawLang, err)
	}

	shutdown, _ := FromEnvOrFlagDuration("SHUTDOWN_TIMEOUT", shutdownOpt, -1, defaultShutdownTimeout)
	interval, _ := FromEnvOrFlagDuration("STORE_INTERVAL", ivalOpt, -1, defaultStoreInterval)
	if interval < 0 {
		return ServerConfig{}, fmt.Errorf("invalid store interval: %v", interval)
	}

	return ServerConfig{
		Address:         addr,
		DSN:             FromEnvOrFlag("DATABASE_DSN", dsnOpt, ""),
		EnginesFile:     FromEnvOrFlag("ENGINES_FILE", enginesOpt, ""),
		Language:        tag,
		Key:             FromEnvOrFlag("KEY", keyOpt, ""),
		AuditFile:       FromEnvOrFlag("AUDIT_FILE", auditFile, ""),
		AuditURL:        FromEnvOrFlag("AUDIT_URL", auditURL, ""),
		ShutdownTimeout: shutdown,
		File:            FromEnvOrFlag("FILE_STORAGE_PATH", fileOpt, ""),
		StoreInterval:   interval,
		Restore:         FromEnvOrFlagBool("RESTORE", restoreOpt, false),
	}, nil
}

func normalizeListenAndServeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultListenAndServeAddr
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			return u.Host
		}
	}
	if !strings.Contains(s, ":") {
		return ":" + s
	}
	return s
}
