package unnamed

import (
	"io"
	"testing"
)

func TestPair_RoundTrip(t *testing.T) {
	t.Parallel()

	r, w, err := Pair()
	if err != nil {
		t.Fatalf("Pair(): %v", err)
	}
	defer r.Close()

	go func() {
		w.Write([]byte("through the pipe"))
		w.Close()
	}()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading pipe: %v", err)
	}
	if string(got) != "through the pipe" {
		t.Errorf("read %q, want %q", got, "through the pipe")
	}
}
