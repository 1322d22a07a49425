package logfields

import (
	"errors"
	"testing"
)

func TestHelpersProduceCanonicalKeys(t *testing.T) {
	if a := Notebook("plot_ot.ipynb"); a.Key != KeyNotebook || a.Value.String() != "plot_ot.ipynb" {
		t.Fatalf("unexpected attr: %v", a)
	}
	if a := Digest("abc123"); a.Key != KeyDigest || a.Value.String() != "abc123" {
		t.Fatalf("unexpected attr: %v", a)
	}
	if a := Count(7); a.Key != KeyCount || a.Value.Int64() != 7 {
		t.Fatalf("unexpected attr: %v", a)
	}
}

func TestErrorAttr(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should render empty, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("unexpected error attr: %q", a.Value.String())
	}
}
