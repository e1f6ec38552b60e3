//go:build !windows
// +build !windows

package localsock

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"crossipc/localsock/pkg/name"
)

func testName(t *testing.T) name.Name {
	t.Helper()

	n, err := name.Resolve(filepath.Join(t.TempDir(), "test.sock"), name.Filesystem)
	if err != nil {
		t.Fatalf("name.Resolve(): %v", err)
	}
	return n
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		size int
	}{
		{name: "empty", size: 0},
		{name: "one byte", size: 1},
		{name: "small", size: 1024},
		{name: "one MiB", size: 1 << 20},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			n := testName(t)
			l, err := Listen(n)
			if err != nil {
				t.Fatalf("Listen(): %v", err)
			}
			defer l.Close()

			payload := make([]byte, tc.size)
			rng := rand.New(rand.NewSource(int64(tc.size)))
			rng.Read(payload)

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()

				conn, err := Dial(n, time.Second)
				if err != nil {
					t.Errorf("Dial(): %v", err)
					return
				}
				defer conn.Close()

				// Write in arbitrary chunks to exercise reassembly.
				for off := 0; off < len(payload); {
					chunk := 1 + rng.Intn(64*1024)
					if off+chunk > len(payload) {
						chunk = len(payload) - off
					}
					if _, err := conn.Write(payload[off : off+chunk]); err != nil {
						t.Errorf("Write(): %v", err)
						return
					}
					off += chunk
				}
				if err := conn.CloseWrite(); err != nil {
					t.Errorf("CloseWrite(): %v", err)
				}
			}()

			conn, err := l.Accept()
			if err != nil {
				t.Fatalf("Accept(): %v", err)
			}
			defer conn.Close()

			var got bytes.Buffer
			if _, err := io.Copy(&got, conn); err != nil {
				t.Fatalf("reading stream: %v", err)
			}
			wg.Wait()

			if !bytes.Equal(got.Bytes(), payload) {
				t.Errorf("received %d bytes, sent %d bytes, contents differ", got.Len(), len(payload))
			}
		})
	}
}

func TestListen_Exclusivity(t *testing.T) {
	t.Parallel()

	n := testName(t)
	l1, err := Listen(n)
	if err != nil {
		t.Fatalf("first Listen(): %v", err)
	}

	if _, err := Listen(n); !errors.Is(err, ErrAddressInUse) {
		t.Errorf("second Listen() error = %v, want ErrAddressInUse", err)
	}

	if err := l1.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	// After closing (and unlinking) the same name binds again.
	l2, err := Listen(n)
	if err != nil {
		t.Fatalf("Listen() after close: %v", err)
	}
	l2.Close()
}

func TestListen_ReclaimsStaleSocketFile(t *testing.T) {
	t.Parallel()

	n := testName(t)
	l, err := Listen(n)
	if err != nil {
		t.Fatalf("Listen(): %v", err)
	}

	// Close the handle without unlinking to fake a crashed process.
	ul := l.b.(*unixListener)
	ul.close()

	l2, err := Listen(n)
	if err != nil {
		t.Fatalf("Listen() over stale socket file: %v", err)
	}
	l2.Close()
}

func TestListen_LeadingAtNameStaysOnFilesystem(t *testing.T) {
	// Relative paths; must control the working directory, so no t.Parallel.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("os.Getwd(): %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("os.Chdir(): %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	n, err := name.Resolve("@at.sock", name.Filesystem)
	if err != nil {
		t.Fatalf("name.Resolve(): %v", err)
	}

	l, err := Listen(n)
	if err != nil {
		t.Fatalf("Listen(): %v", err)
	}

	// A filesystem bind must create a socket file, never an abstract entry.
	fi, err := os.Lstat("@at.sock")
	if err != nil {
		t.Fatalf("socket file not created: %v", err)
	}
	if fi.Mode()&os.ModeSocket == 0 {
		t.Errorf("Lstat() mode = %v, want a socket", fi.Mode())
	}

	// The abstract identifier of the same spelling stays free.
	if runtime.GOOS == "linux" {
		an, err := name.Resolve("at.sock", name.Namespaced)
		if err != nil {
			t.Fatalf("name.Resolve(Namespaced): %v", err)
		}
		if _, err := Dial(an, 0); !errors.Is(err, ErrNotFound) {
			t.Errorf("Dial(abstract) error = %v, want ErrNotFound", err)
		}
	}

	if err := l.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}
	if _, err := os.Lstat("@at.sock"); !os.IsNotExist(err) {
		t.Errorf("socket file not unlinked on Close: %v", err)
	}
}

func TestHalfClose(t *testing.T) {
	t.Parallel()

	n := testName(t)
	l, err := Listen(n)
	if err != nil {
		t.Fatalf("Listen(): %v", err)
	}
	defer l.Close()

	type result struct {
		conn *Conn
		err  error
	}
	acceptCh := make(chan result, 1)
	go func() {
		conn, err := l.Accept()
		acceptCh <- result{conn, err}
	}()

	client, err := Dial(n, time.Second)
	if err != nil {
		t.Fatalf("Dial(): %v", err)
	}
	defer client.Close()

	res := <-acceptCh
	if res.err != nil {
		t.Fatalf("Accept(): %v", res.err)
	}
	server := res.conn
	defer server.Close()

	// A shuts down its write half; B observes EOF on read.
	if _, err := client.Write([]byte("last words")); err != nil {
		t.Fatalf("client.Write(): %v", err)
	}
	if err := client.CloseWrite(); err != nil {
		t.Fatalf("client.CloseWrite(): %v", err)
	}

	got, err := io.ReadAll(server)
	if err != nil {
		t.Fatalf("server read after peer CloseWrite: %v", err)
	}
	if string(got) != "last words" {
		t.Errorf("server read %q, want %q", got, "last words")
	}

	// B can still write and A can still read those bytes.
	if _, err := server.Write([]byte("reply")); err != nil {
		t.Fatalf("server.Write() after EOF on read half: %v", err)
	}
	buf := make([]byte, 16)
	rn, err := client.Read(buf)
	if err != nil {
		t.Fatalf("client.Read(): %v", err)
	}
	if string(buf[:rn]) != "reply" {
		t.Errorf("client read %q, want %q", buf[:rn], "reply")
	}

	// Writing on the shut down half fails with a closed condition.
	if _, err := client.Write([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("write after CloseWrite error = %v, want ErrClosed", err)
	}
}

func TestNoLeakOnDrop(t *testing.T) {
	t.Parallel()

	n := testName(t)

	for i := 0; i < 10; i++ {
		l, err := Listen(n)
		if err != nil {
			t.Fatalf("Listen() iteration %d: %v", i, err)
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}()

		conn, err := Dial(n, time.Second)
		if err != nil {
			t.Fatalf("Dial() iteration %d: %v", i, err)
		}
		conn.Close()
		<-done
		l.Close()
	}
}

func TestDial_NoServer(t *testing.T) {
	t.Parallel()

	n := testName(t)
	if _, err := Dial(n, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Dial() error = %v, want ErrNotFound", err)
	}
}

func TestDial_WaitsForListener(t *testing.T) {
	t.Parallel()

	n := testName(t)

	listenerUp := make(chan *Listener, 1)
	go func() {
		time.Sleep(100 * time.Millisecond)
		l, err := Listen(n)
		if err != nil {
			t.Errorf("Listen(): %v", err)
			listenerUp <- nil
			return
		}
		listenerUp <- l
		conn, err := l.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	conn, err := Dial(n, 2*time.Second)
	if err != nil {
		t.Fatalf("Dial() with timeout did not wait for listener: %v", err)
	}
	conn.Close()

	if l := <-listenerUp; l != nil {
		l.Close()
	}
}

func TestListener_ClosedSemantics(t *testing.T) {
	t.Parallel()

	n := testName(t)
	l, err := Listen(n)
	if err != nil {
		t.Fatalf("Listen(): %v", err)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}

	if _, err := l.Accept(); !errors.Is(err, ErrClosed) {
		t.Errorf("Accept() on closed listener error = %v, want ErrClosed", err)
	}
}

func TestConn_CloseIdempotent(t *testing.T) {
	t.Parallel()

	n := testName(t)
	l, err := Listen(n)
	if err != nil {
		t.Fatalf("Listen(): %v", err)
	}
	defer l.Close()

	go func() {
		conn, err := l.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	conn, err := Dial(n, time.Second)
	if err != nil {
		t.Fatalf("Dial(): %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	if _, err := conn.Read(make([]byte, 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Read() after Close error = %v, want ErrClosed", err)
	}
	if _, err := conn.Write([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("Write() after Close error = %v, want ErrClosed", err)
	}
}

func TestNamespaced_RoundTrip(t *testing.T) {
	t.Parallel()

	if runtime.GOOS != "linux" {
		t.Skip("abstract socket namespace requires Linux")
	}

	n, err := name.Resolve(fmt.Sprintf("localsock-test-%d", os.Getpid()), name.Namespaced)
	if err != nil {
		t.Fatalf("name.Resolve(): %v", err)
	}

	l, err := Listen(n)
	if err != nil {
		t.Fatalf("Listen(): %v", err)
	}
	defer l.Close()

	go func() {
		conn, err := Dial(n, time.Second)
		if err != nil {
			t.Errorf("Dial(): %v", err)
			return
		}
		conn.Write([]byte("ping"))
		conn.Close()
	}()

	conn, err := l.Accept()
	if err != nil {
		t.Fatalf("Accept(): %v", err)
	}
	defer conn.Close()

	got, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if string(got) != "ping" {
		t.Errorf("read %q, want %q", got, "ping")
	}
}
