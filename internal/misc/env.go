package misc

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ParseSeconds reads whole seconds ("30") or Go duration syntax ("1m30s").
func ParseSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("not seconds or a duration: %q", s)
	}
	return d, nil
}

// GetBool accepts 1/0, true/false, t/f, yes/no and y/n in any case; anything else yields def.
func GetBool(key string, def bool) bool {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(key))) {
	case "1", "true", "t", "yes", "y":
		return true
	case "0", "false", "f", "no", "n":
		return false
	default:
		return def
	}
}
