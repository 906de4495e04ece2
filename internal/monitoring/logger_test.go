package monitoring

import "testing"

func TestSetLoggerSwapsAndMutes(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) { got = format })
	Logf("pass failed")
	if got != "pass failed" {
		t.Errorf("custom logger not called, got %q", got)
	}

	got = ""
	SetLogger(nil)
	Logf("should be dropped")
	if got != "" {
		t.Error("nil logger should install a no-op")
	}
}

func TestLogfDefaultIsUsable(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf must not be nil by default")
	}
}
