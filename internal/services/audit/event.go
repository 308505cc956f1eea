// Package audit publishes a record of every accepted sample batch.
package audit

// Event describes which metric keys a batch touched, when, and who sent it.
type Event struct {
	Keys      []string `json:"keys"`
	Timestamp int64    `json:"ts"`
	Samples   int      `json:"samples"`
	Counters  int      `json:"counters"`
	IPAddress string   `json:"ip_address,omitempty"`
	UserAgent string   `json:"user_agent,omitempty"`
}
