package log

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type fakeStream struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (f *fakeStream) Read(p []byte) (int, error)  { return f.in.Read(p) }
func (f *fakeStream) Write(p []byte) (int, error) { return f.out.Write(p) }
func (f *fakeStream) Close() error                { return nil }

func TestNewLoggedStream(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "traffic.log")
	fake := &fakeStream{
		in:  bytes.NewBufferString("incoming"),
		out: &bytes.Buffer{},
	}

	ls, err := NewLoggedStream(fake, logPath)
	if err != nil {
		t.Fatalf("NewLoggedStream(): %v", err)
	}

	if _, err := io.ReadAll(ls); err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	if _, err := ls.Write([]byte("|outgoing")); err != nil {
		t.Fatalf("writing stream: %v", err)
	}
	if err := ls.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	logged, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if string(logged) != "incoming|outgoing" {
		t.Errorf("log file contents = %q, want %q", logged, "incoming|outgoing")
	}
	if fake.out.String() != "|outgoing" {
		t.Errorf("stream received %q, want %q", fake.out.String(), "|outgoing")
	}
}
