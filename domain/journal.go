package domain

import (
	"encoding/json"
	"time"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// LogEntry records one mutation made through the back-office.
type LogEntry struct {
	ID               string          `json:"id"`
	OrganizationName string          `json:"organization_name,omitempty"`
	ActorEmail       string          `json:"actor_email"`
	Entity           string          `json:"entity"`
	Action           string          `json:"action"`
	EntityKey        string          `json:"entity_key"`
	Payload          json.RawMessage `json:"payload,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (e *LogEntry) Touch() {
	if e == nil {
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
}
