// Package summary defines the validated payload produced for each
// summarized chunk and the validator that turns raw model output into one.
package summary

const (
	// StatusOK marks an output whose payload carries no error.
	StatusOK = "ok"
	// StatusError marks an output whose payload failed generation or
	// validation.
	StatusError = "error"
)

// Payload is the validated summary of a single chunk. Pointer fields keep
// explicit nulls in artifacts so readers can tell "unset" from "empty".
// Error set implies the success fields are unset.
type Payload struct {
	Summary    *string  `json:"summary"`
	Points     []string `json:"points"`
	Confidence *float64 `json:"confidence"`
	Error      *string  `json:"error"`
	RawOutput  *string  `json:"raw_output"`
}

// Failed reports whether the payload carries an error.
func (p Payload) Failed() bool { return p.Error != nil }

// Output pairs a payload with its derived status, the shape written to
// artifact files.
type Output struct {
	Status  string  `json:"status"`
	Summary Payload `json:"summary"`
}

// Wrap derives the output status from the payload's error slot.
func Wrap(p Payload) Output {
	status := StatusOK
	if p.Failed() {
		status = StatusError
	}
	return Output{Status: status, Summary: p}
}

// ErrorPayload builds a failure payload. raw is preserved as raw_output
// when non-empty.
func ErrorPayload(msg, raw string) Payload {
	p := Payload{Error: &msg}
	if raw != "" {
		p.RawOutput = &raw
	}
	return p
}
