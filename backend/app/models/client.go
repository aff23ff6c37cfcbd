package models

import "time"

// CommandEntry is a command queued for a client by an admin.
// Executed is always written false and never read or flipped.
type CommandEntry struct {
	Command  string    `json:"command"`
	SentAt   time.Time `json:"sent_at"`
	Executed bool      `json:"executed"`
}

// ResultEntry is a result reported by the agent for a command.
type ResultEntry struct {
	Command string    `json:"command"`
	Result  string    `json:"result"`
	Time    time.Time `json:"time"`
}

// Client is the whole state of one agent, keyed by (domain, client_id).
// Commands and Results are append-only logs stored as JSON in the same row.
type Client struct {
	ID        uint           `gorm:"primaryKey" json:"-"`
	Domain    string         `gorm:"size:191;not null;uniqueIndex:idx_clients_domain_client" json:"domain"`
	ClientID  string         `gorm:"size:191;not null;uniqueIndex:idx_clients_domain_client" json:"client_id"`
	Info      map[string]any `gorm:"type:text;serializer:json" json:"info"`
	LastSeen  time.Time      `gorm:"index" json:"last_seen"`
	Commands  []CommandEntry `gorm:"type:text;serializer:json" json:"commands"`
	Results   []ResultEntry  `gorm:"type:text;serializer:json" json:"results"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
}

// ClientSummary is one row of the admin client list; Online is computed at read time.
type ClientSummary struct {
	ClientID string         `json:"client_id"`
	Info     map[string]any `json:"info"`
	LastSeen time.Time      `json:"last_seen"`
	Online   bool           `json:"online"`
}

// Clone returns a deep copy so callers never share slices or maps with a store.
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	out := *c
	out.Info = cloneInfo(c.Info)
	out.Commands = append([]CommandEntry{}, c.Commands...)
	out.Results = append([]ResultEntry{}, c.Results...)
	return &out
}

// cloneInfo copies the nested maps and slices a decoded JSON object can hold;
// other values are immutable scalars.
func cloneInfo(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneInfo(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
