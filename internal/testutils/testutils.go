package testutils

import (
	"bytes"
	"io"
	"log/slog"
	"net"
	"os"
	"testing"
	"time"
)

// SetupTestLogger creates a new slog.Logger that writes to a bytes.Buffer and stderr,
// configured for DEBUG level. Returns the logger and the buffer.
func SetupTestLogger() (*slog.Logger, *bytes.Buffer) {
	var logBuf bytes.Buffer
	handler := slog.NewTextHandler(io.MultiWriter(&logBuf, os.Stderr), &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(handler)
	return logger, &logBuf
}

// ListenTCP starts a loopback listener that accepts and immediately closes
// connections until the test ends. It returns the listener address.
func ListenTCP(t *testing.T) *net.TCPAddr {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen on a port: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return listener.Addr().(*net.TCPAddr)
}

// ClosedTCPPort returns a loopback port that nothing listens on.
func ClosedTCPPort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen to get a port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	time.Sleep(50 * time.Millisecond) // Give OS time to release port
	return port
}
