// Package health contiene DTOs para los endpoints de health.
package health

import "time"

// Status de un componente.
type Status struct {
	Status  string `json:"status"` // "ok" | "error" | "disabled"
	Message string `json:"message,omitempty"`
}

// Response de /readyz.
type Response struct {
	Status     string            `json:"status"` // "ready" | "degraded" | "unavailable"
	Components map[string]Status `json:"components"`
	Service    string            `json:"service,omitempty"`
	Version    string            `json:"version,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

const (
	StatusReady       = "ready"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
)
