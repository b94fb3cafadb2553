package notifications

import (
	"testing"

	"github.com/9ssi7/exponent"
)

func TestNewExpoAdapterWrapsClient(t *testing.T) {
	adapter := NewExpoAdapter(exponent.NewClient())
	if adapter == nil {
		t.Fatal("expected adapter")
	}

	// The adapter must satisfy the sender abstraction handlers depend on.
	var _ PushSender = adapter
}

func TestDedupe(t *testing.T) {
	tokens := []string{"a", "b", "a", "c", "b"}

	got := dedupe(tokens)

	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
