package config

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"
)

const (
	defaultServerAddr = "http://localhost:8080"
	defaultRateLimit  = 1
	defaultBatchSize  = 50
)

// AgentConfig configures the replay agent that pushes recorded engine runs to the server.
type AgentConfig struct {
	Address   string
	Key       string
	Input     string
	RateLimit int
	BatchSize int
}

// LoadAgentConfig resolves every setting as ENV > CLI > defaults.
func LoadAgentConfig(args []string, out io.Writer) (AgentConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	fs.SetOutput(out)

	var (
		addrOpt  string
		keyOpt   string
		inputOpt string
		limitOpt int
		batchOpt int
	)
	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("server address (host:port or URL), default: %s", defaultServerAddr))
	fs.StringVar(&keyOpt, "k", "", "secret key for HashSHA256 header")
	fs.StringVar(&inputOpt, "f", "", "INPUT file with one JSON record per line, default: stdin")
	fs.IntVar(&limitOpt, "l", 0, fmt.Sprintf("rate limit (max concurrent outgoing requests), default: %d", defaultRateLimit))
	fs.IntVar(&batchOpt, "b", 0, fmt.Sprintf("records per sample batch, default: %d", defaultBatchSize))

	if err := fs.Parse(args); err != nil {
		return AgentConfig{}, err
	}

	addr := normalizeAddressURL(FromEnvOrFlag("ADDRESS", addrOpt, defaultServerAddr))
	if u, err := url.ParseRequestURI(addr); err != nil || u.Host == "" {
		return AgentConfig{}, fmt.Errorf("invalid server address: %q", addr)
	}

	return AgentConfig{
		Address:   addr,
		Key:       FromEnvOrFlag("KEY", keyOpt, ""),
		Input:     FromEnvOrFlag("INPUT", inputOpt, ""),
		RateLimit: FromEnvOrFlagInt("RATE_LIMIT", limitOpt, defaultRateLimit, 1),
		BatchSize: FromEnvOrFlagInt("BATCH_SIZE", batchOpt, defaultBatchSize, 1),
	}, nil
}

func normalizeAddressURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultServerAddr
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	if strings.HasPrefix(s, ":") {
		return "http://localhost" + s
	}
	return "http://" + s
}
