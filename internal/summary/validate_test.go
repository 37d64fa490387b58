package summary

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateSuccess(t *testing.T) {
	p := Validate(`{"summary":"hi","points":["a"],"confidence":0.5}`)
	if p.Failed() {
		t.Fatalf("Validate returned failure: %+v", p)
	}
	if p.Summary == nil || *p.Summary != "hi" {
		t.Fatalf("summary = %v, want hi", p.Summary)
	}
	if len(p.Points) != 1 || p.Points[0] != "a" {
		t.Fatalf("points = %v, want [a]", p.Points)
	}
	if p.Confidence == nil || *p.Confidence != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", p.Confidence)
	}
	if p.RawOutput != nil {
		t.Fatalf("raw_output = %v, want nil", p.RawOutput)
	}
}

func TestValidateTrimsSummaryAndPoints(t *testing.T) {
	p := Validate(`{"summary":"  margins expanded  ","points":["  ","growth","\t"]}`)
	if p.Failed() {
		t.Fatalf("Validate returned failure: %+v", p)
	}
	if *p.Summary != "margins expanded" {
		t.Fatalf("summary = %q, want trimmed", *p.Summary)
	}
	if len(p.Points) != 1 || p.Points[0] != "growth" {
		t.Fatalf("points = %v, want [growth]", p.Points)
	}
}

func TestValidateParseFailure(t *testing.T) {
	for _, raw := range []string{"not json", "", `{"summary": }`, `{"a":1} trailing`} {
		p := Validate(raw)
		if p.Error == nil || *p.Error != "JSON parse failed" {
			t.Fatalf("Validate(%q).Error = %v, want JSON parse failed", raw, p.Error)
		}
		if raw != "" && (p.RawOutput == nil || *p.RawOutput != raw) {
			t.Fatalf("Validate(%q).RawOutput = %v, want input preserved", raw, p.RawOutput)
		}
		if p.Summary != nil || p.Points != nil || p.Confidence != nil {
			t.Fatalf("Validate(%q) left success fields set: %+v", raw, p)
		}
	}
}

func TestValidateSchemaFailure(t *testing.T) {
	cases := []string{
		`{"confidence": 2.0}`,
		`{"confidence": -0.1}`,
		`{"confidence": "high"}`,
		`{"summary": 42}`,
		`{"points": "a"}`,
		`{"points": [1,2]}`,
		`{"raw_output": 7}`,
		`{"error": 5}`,
		`null`,
		`42`,
		`[{"summary":"hi"}]`,
		`"just a string"`,
		`{"summary":"hi","error":"conflict"}`,
	}
	for _, raw := range cases {
		p := Validate(raw)
		if p.Error == nil || *p.Error != "Schema validation failed" {
			t.Fatalf("Validate(%q).Error = %v, want Schema validation failed", raw, p.Error)
		}
		if p.RawOutput == nil || *p.RawOutput != raw {
			t.Fatalf("Validate(%q).RawOutput = %v, want input preserved", raw, p.RawOutput)
		}
	}
}

func TestValidateToleratesNullsAndExtraKeys(t *testing.T) {
	p := Validate(`{"summary":null,"points":null,"confidence":null,"model":"deepseek","tokens":512}`)
	if p.Failed() {
		t.Fatalf("Validate returned failure: %+v", p)
	}
	if p.Summary != nil || p.Points != nil || p.Confidence != nil {
		t.Fatalf("null fields must stay unset: %+v", p)
	}
}

func TestValidateBoundaryConfidence(t *testing.T) {
	for _, raw := range []string{`{"confidence":0}`, `{"confidence":1}`} {
		p := Validate(raw)
		if p.Failed() {
			t.Fatalf("Validate(%q) returned failure: %+v", raw, p)
		}
		if p.Confidence == nil {
			t.Fatalf("Validate(%q) dropped confidence", raw)
		}
	}
}

func TestValidateModelReportedError(t *testing.T) {
	p := Validate(`{"error":"upstream refused","raw_output":"original text"}`)
	if p.Error == nil || *p.Error != "upstream refused" {
		t.Fatalf("error = %v, want upstream refused", p.Error)
	}
	if p.RawOutput == nil || *p.RawOutput != "original text" {
		t.Fatalf("raw_output = %v, want original text", p.RawOutput)
	}
	if !p.Failed() {
		t.Fatal("Failed() = false for error payload")
	}
}

func TestValidateEmptyPointsStayEmptyList(t *testing.T) {
	p := Validate(`{"points":["  "]}`)
	if p.Failed() {
		t.Fatalf("Validate returned failure: %+v", p)
	}
	if p.Points == nil || len(p.Points) != 0 {
		t.Fatalf("points = %#v, want empty non-nil slice", p.Points)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	raw := `{"summary":" hi "}`
	first := Validate(raw)
	second := Validate(raw)
	if *first.Summary != *second.Summary {
		t.Fatalf("Validate not deterministic: %q vs %q", *first.Summary, *second.Summary)
	}
}

func TestWrapStatus(t *testing.T) {
	ok := Wrap(Validate(`{"summary":"hi"}`))
	if ok.Status != StatusOK {
		t.Fatalf("status = %q, want %q", ok.Status, StatusOK)
	}
	failed := Wrap(ErrorPayload("Exception: timeout", ""))
	if failed.Status != StatusError {
		t.Fatalf("status = %q, want %q", failed.Status, StatusError)
	}
}

func TestErrorPayloadOmitsEmptyRaw(t *testing.T) {
	p := ErrorPayload("boom", "")
	if p.RawOutput != nil {
		t.Fatalf("RawOutput = %v, want nil for empty raw", p.RawOutput)
	}
	p = ErrorPayload("boom", "raw text")
	if p.RawOutput == nil || *p.RawOutput != "raw text" {
		t.Fatalf("RawOutput = %v, want raw text", p.RawOutput)
	}
}

func TestPayloadMarshalsExplicitNulls(t *testing.T) {
	data, err := json.Marshal(Payload{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"summary":null`, `"points":null`, `"confidence":null`, `"error":null`, `"raw_output":null`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("marshaled payload missing %s: %s", key, data)
		}
	}
}
