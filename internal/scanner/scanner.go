package scanner

import (
	"conntest/internal/models"
	"conntest/internal/resolver"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"
)

// Resolver turns a raw target into a dialable address.
type Resolver interface {
	Resolve(ctx context.Context, raw string, defaultPort uint16) (*net.TCPAddr, error)
}

// ConnectScanner probes a target with a single TCP handshake.
type ConnectScanner struct {
	Timeout     time.Duration
	DefaultPort uint16
	DryRun      bool
	Resolver    Resolver
	Dialer      Dialer
	Logger      *slog.Logger
}

// NewConnectScanner creates a new instance of a ConnectScanner.
func NewConnectScanner(timeout time.Duration, defaultPort uint16, r Resolver, d Dialer, logger *slog.Logger) *ConnectScanner {
	return &ConnectScanner{
		Timeout:     timeout,
		DefaultPort: defaultPort,
		Resolver:    r,
		Dialer:      d,
		Logger:      logger,
	}
}

// Probe resolves raw and attempts one connect to it. Every failure is
// returned as part of the outcome.
func (s *ConnectScanner) Probe(ctx context.Context, raw string) models.ProbeOutcome {
	outcome := models.ProbeOutcome{
		Timestamp: time.Now(),
		Target:    raw,
	}

	addr, err := s.Resolver.Resolve(ctx, raw, s.DefaultPort)
	if err != nil {
		outcome.Err = err
		outcome.Reason = err.Error()
		if errors.Is(err, resolver.ErrNoAddressFound) {
			outcome.Status = models.StatusNoAddress
		} else {
			outcome.Status = models.StatusUnresolved
		}
		s.Logger.Debug("Failed to resolve target", "target", raw, "error", err)
		return outcome
	}
	outcome.Address = addr.String()

	if s.DryRun {
		outcome.Status = models.StatusDryRun
		s.Logger.Debug("Dry run, skipping connect", "target", raw, "address", outcome.Address)
		return outcome
	}
	return s.connect(ctx, outcome)
}

func (s *ConnectScanner) connect(ctx context.Context, outcome models.ProbeOutcome) models.ProbeOutcome {
	s.Logger.Debug("Attempting to dial target", "address", outcome.Address, "timeout", s.Timeout)

	startTime := time.Now()
	dialCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	conn, err := s.Dialer.DialContext(dialCtx, "tcp", outcome.Address)
	outcome.Elapsed = time.Since(startTime)

	if err != nil {
		outcome.Err = err
		if isTimeout(err) {
			outcome.Status = models.StatusTimeout
			outcome.Reason = fmt.Sprintf("Timeout after %s seconds", models.FormatSeconds(outcome.Elapsed))
			s.Logger.Debug("Target timed out", "address", outcome.Address, "elapsed", outcome.Elapsed)
		} else {
			outcome.Status = models.StatusFailed
			outcome.Reason = err.Error()
			s.Logger.Debug("Failed to dial target", "address", outcome.Address, "error", err)
		}
		return outcome
	}
	// nothing is exchanged, the handshake is the whole probe
	_ = conn.Close()

	outcome.Status = models.StatusSuccess
	s.Logger.Debug("Successfully dialed target", "address", outcome.Address, "latency_ms", outcome.Elapsed.Seconds()*1000)
	return outcome
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
