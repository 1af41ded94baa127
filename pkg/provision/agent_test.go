package provision

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/mvnpack/pkg/artifact"
)

// serve starts a one-shot agent that records the request line and replies.
func serve(t *testing.T, reply string) (string, <-chan string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "prov")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	socket := filepath.Join(dir, "agent.sock")

	ln, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadString('\n')
		got <- line
		_, _ = io.WriteString(conn, reply)
	}()
	return socket, got
}

func TestTryInstallOK(t *testing.T) {
	socket, got := serve(t, "ok\n")
	a := New(socket, nil)

	c := artifact.New("org.example", "lib", "", "", "1.0")
	if !a.TryInstall(context.Background(), c) {
		t.Error("TryInstall() = false, want true")
	}

	select {
	case line := <-got:
		if line != "install mvn(org.example:lib:1.0)\n" {
			t.Errorf("request = %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("agent received no request")
	}
}

func TestTryInstallRefused(t *testing.T) {
	for _, reply := range []string{"no\n", "ok", "OK\n", ""} {
		t.Run(reply, func(t *testing.T) {
			socket, _ := serve(t, reply)
			a := New(socket, nil)
			a.Timeout = 2 * time.Second
			if a.TryInstall(context.Background(), artifact.New("g", "a", "", "", "")) {
				t.Errorf("TryInstall() with reply %q = true, want false", reply)
			}
		})
	}
}

func TestTryInstallDisabled(t *testing.T) {
	a := New("", nil)
	if a.Enabled() {
		t.Error("Enabled() = true for empty socket")
	}
	if a.TryInstall(context.Background(), artifact.New("g", "a", "", "", "")) {
		t.Error("TryInstall() = true for disabled agent")
	}

	var nilAgent *Agent
	if nilAgent.TryInstall(context.Background(), artifact.New("g", "a", "", "", "")) {
		t.Error("TryInstall() = true for nil agent")
	}
}

func TestTryInstallDialError(t *testing.T) {
	a := New(filepath.Join(t.TempDir(), "missing.sock"), nil)
	if a.TryInstall(context.Background(), artifact.New("g", "a", "", "", "")) {
		t.Error("TryInstall() = true for missing socket")
	}
}
