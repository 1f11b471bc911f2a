package diagnostics

import "time"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Codes emitted by the server and the render loop.
const (
	ClientConnected    = "CLIENT.CONNECTED"
	ClientDisconnected = "CLIENT.DISCONNECTED"
	InputRejected      = "INPUT.REJECTED"
	FrameOverrun       = "FRAME.OVERRUN"
	ServerStopping     = "SERVER.STOPPING"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
	T              int64          `json:"t"`
}

// Overrun describes a frame that took longer than budget.
func Overrun(delta, budget time.Duration) Diagnostic {
	return Diagnostic{
		Severity: Warn,
		Code:     FrameOverrun,
		Summary:  "Frame took longer than its budget",
		LikelyCauses: []string{
			"GUI build or frame encoding is too slow for the target rate",
			"host is overloaded or the scheduler slept past the deadline",
		},
		SuggestedFixes: []string{"lower --fps", "reduce connected clients"},
		Evidence: map[string]any{
			"delta_ms":  float64(delta.Microseconds()) / 1000.0,
			"budget_ms": float64(budget.Microseconds()) / 1000.0,
		},
	}
}
