package summary

import (
	"encoding/json"
	"strings"
)

const (
	parseFailedMessage  = "JSON parse failed"
	schemaFailedMessage = "Schema validation failed"
)

// Validate turns raw model output into exactly one payload: success,
// parse failure, or schema failure. It is total and never returns a Go
// error; callers log failures if they care.
//
// Success fields and the error slot are mutually exclusive: a decoded
// object carrying both is a schema failure.
func Validate(raw string) Payload {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return ErrorPayload(parseFailedMessage, raw)
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return ErrorPayload(schemaFailedMessage, raw)
	}

	var out Payload

	if v, present := obj["summary"]; present && v != nil {
		s, ok := v.(string)
		if !ok {
			return ErrorPayload(schemaFailedMessage, raw)
		}
		trimmed := strings.TrimSpace(s)
		out.Summary = &trimmed
	}
	if v, present := obj["points"]; present && v != nil {
		items, ok := v.([]any)
		if !ok {
			return ErrorPayload(schemaFailedMessage, raw)
		}
		points := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return ErrorPayload(schemaFailedMessage, raw)
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			points = append(points, s)
		}
		out.Points = points
	}
	if v, present := obj["confidence"]; present && v != nil {
		f, ok := v.(float64)
		if !ok {
			return ErrorPayload(schemaFailedMessage, raw)
		}
		if f < 0 || f > 1 {
			return ErrorPayload(schemaFailedMessage, raw)
		}
		out.Confidence = &f
	}
	if v, present := obj["raw_output"]; present && v != nil {
		s, ok := v.(string)
		if !ok {
			return ErrorPayload(schemaFailedMessage, raw)
		}
		out.RawOutput = &s
	}
	if v, present := obj["error"]; present && v != nil {
		s, ok := v.(string)
		if !ok {
			return ErrorPayload(schemaFailedMessage, raw)
		}
		if out.Summary != nil || out.Points != nil || out.Confidence != nil {
			return ErrorPayload(schemaFailedMessage, raw)
		}
		out.Error = &s
	}
	return out
}
