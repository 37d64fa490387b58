package services_test

import (
	"errors"
	"strings"
	"testing"

	"secsum/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalService, "qdrant", "upsert", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"qdrant", "upsert", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "edgar", "download", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"validation", services.Wrap(services.ErrValidation, "config", "load", "bad value", nil), "validation"},
		{"configuration", services.Wrap(services.ErrConfiguration, "vectorindex", "dimension", "", nil), "configuration"},
		{"not found", services.Wrap(services.ErrNotFound, "preprocess", "list", "no documents", nil), "not_found"},
		{"external", services.Wrap(services.ErrExternalService, "llm", "generate", "", errors.New("503")), "external"},
		{"unknown", errors.New("plain"), "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsSetupFailure(t *testing.T) {
	if !services.IsSetupFailure(services.Wrap(services.ErrConfiguration, "embedding", "probe", "", nil)) {
		t.Fatal("configuration errors are setup failures")
	}
	if !services.IsSetupFailure(services.Wrap(services.ErrExternalService, "qdrant", "create", "", nil)) {
		t.Fatal("external service errors are setup failures")
	}
	if services.IsSetupFailure(services.Wrap(services.ErrNotFound, "preprocess", "list", "", nil)) {
		t.Fatal("not-found errors are handled in-band, not setup failures")
	}
}
