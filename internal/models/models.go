package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Preset is a named pair of roll/cloth configurations stored in Postgres.
// Config holds the JSON payload exactly as the API accepts it.
type Preset struct {
	Name      string          `db:"name" json:"name"`
	Config    json.RawMessage `db:"config" json:"config"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// SessionLog is a usage-telemetry row written when a session closes.
type SessionLog struct {
	ID           int          `db:"id" json:"id"`
	SessionToken string       `db:"session_token" json:"session_token"`
	Preset       string       `db:"preset" json:"preset,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	LastLength   float64      `db:"last_length" json:"last_length"`
	ClosedAt     sql.NullTime `db:"closed_at" json:"closed_at,omitempty"`
}
