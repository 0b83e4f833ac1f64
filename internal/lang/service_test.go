package lang

import "testing"

func TestServiceCompileBundleSourceSuccess(t *testing.T) {
	svc := NewService()
	src := "bpm 120 note 60\nsend 1 3:8\n"

	bundle, res, err := svc.CompileBundleSource([]byte(src), nil)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if res == nil {
		t.Fatalf("expected compile result")
	}
	if !bundle.Success {
		t.Fatalf("expected successful bundle: %+v", bundle)
	}
	if bundle.Manifest == nil {
		t.Fatalf("expected manifest in bundle")
	}
	if bundle.Manifest.EventCount == 0 {
		t.Fatalf("expected non-empty manifest event count")
	}
}

func TestServiceCompileBundleSourceError(t *testing.T) {
	svc := NewService()
	src := "bpm 120 note 60\nsend 1 (beat skip) rep 0\n"

	bundle, res, err := svc.CompileBundleSource([]byte(src), nil)
	if err == nil {
		t.Fatalf("expected compile error")
	}
	if res == nil {
		t.Fatalf("expected compile result")
	}
	if bundle.Success {
		t.Fatalf("expected failed bundle")
	}
	if bundle.Summary.ErrorCount == 0 {
		t.Fatalf("expected non-zero error count in bundle summary")
	}
}
