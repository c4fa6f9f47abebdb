package domain

import "time"

// RunKind distingue las ejecuciones de los dos pipelines.
type RunKind string

const (
	RunScan   RunKind = "scan"
	RunSettle RunKind = "settle"
)

// Run es el resumen persistido de una ejecución de scan o de liquidación.
type Run struct {
	ID         string    `json:"id"`
	Kind       RunKind   `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Leagues    int       `json:"leagues"`
	Events     int       `json:"events"`
	Candidates int       `json:"candidates"`
	Inserted   int       `json:"inserted"`
	Resolved   int       `json:"resolved"`
	Unresolved int       `json:"unresolved"`
	Failed     []string  `json:"failed"`
	Error      string    `json:"error,omitempty"`
}

// Duration es el tiempo que tardó la ejecución.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
