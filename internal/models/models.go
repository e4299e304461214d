package models

import (
	"fmt"
	"time"
)

// ProbeStatus classifies the outcome of a single probe.
type ProbeStatus string

const (
	StatusSuccess    ProbeStatus = "SUCCESS"
	StatusTimeout    ProbeStatus = "TIMEOUT"
	StatusFailed     ProbeStatus = "FAILED"
	StatusUnresolved ProbeStatus = "UNRESOLVED"
	StatusNoAddress  ProbeStatus = "NO_ADDRESS"
	StatusDryRun     ProbeStatus = "DRYRUN"
)

// ProbeOutcome holds the result of probing one target.
type ProbeOutcome struct {
	Timestamp time.Time
	// Target is the raw string the operator supplied.
	Target string
	// Address is the resolved ip:port, empty when resolution failed.
	Address string
	Status  ProbeStatus
	Elapsed time.Duration
	// Reason is the operator-facing failure text for every non-success status.
	Reason string
	Err    error
}

// Success reports whether the connect completed.
func (o ProbeOutcome) Success() bool {
	return o.Status == StatusSuccess
}

// Label is the address the outcome is reported under.
func (o ProbeOutcome) Label() string {
	if o.Address != "" {
		return o.Address
	}
	return o.Target
}

// Line renders the outcome as one line of console output.
func (o ProbeOutcome) Line() string {
	switch o.Status {
	case StatusSuccess:
		return fmt.Sprintf("%s  worked in %s seconds", o.Label(), FormatSeconds(o.Elapsed))
	case StatusDryRun:
		return fmt.Sprintf("%s  resolved (dry run, not probed)", o.Label())
	default:
		return fmt.Sprintf("%s  failed due to: %s", o.Label(), o.Reason)
	}
}

// FormatSeconds renders d as seconds with millisecond precision.
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
