// Package duration parses compound duration strings such as "1h25ms".
//
// A string is a run of <digits><unit> segments whose values are summed. Known
// units are "" and "ms" (milliseconds), "s", "m", "h", "d", "w" and "y"
// (365 days). Anything that is not an ASCII digit is collected into the unit
// of the pending segment, so "5 s" fails with an unknown unit " s".
package duration

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrOverflow is wrapped by NumberError when a segment or the total does not fit.
var ErrOverflow = errors.New("duration overflows")

// unitMillis maps a unit suffix to its length in milliseconds.
var unitMillis = map[string]uint64{
	"":   1,
	"ms": 1,
	"s":  1000,
	"m":  1000 * 60,
	"h":  1000 * 3600,
	"d":  1000 * 24 * 3600,
	"w":  1000 * 24 * 3600 * 7,
	"y":  1000 * 24 * 3600 * 365,
}

// UnitError reports a unit suffix that is not understood.
type UnitError struct {
	Unit string
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("unit %s not understood", e.Unit)
}

// NumberError reports a digit run that could not be converted.
type NumberError struct {
	Digits string
	Err    error
}

func (e *NumberError) Error() string {
	return fmt.Sprintf("invalid number %q: %v", e.Digits, e.Err)
}

func (e *NumberError) Unwrap() error { return e.Err }

// accumulator holds the running total and the segment being collected.
type accumulator struct {
	totalMs uint64
	digits  strings.Builder
	unit    strings.Builder
}

// flush adds the pending segment to the total. An empty digit run is a no-op.
func (a *accumulator) flush() error {
	if a.digits.Len() == 0 {
		return nil
	}
	digits, unit := a.digits.String(), a.unit.String()
	a.digits.Reset()
	a.unit.Reset()

	mult, ok := unitMillis[unit]
	if !ok {
		return &UnitError{Unit: unit}
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return &NumberError{Digits: digits, Err: err}
	}
	if n > math.MaxUint64/mult {
		return &NumberError{Digits: digits, Err: ErrOverflow}
	}
	ms := n * mult
	if a.totalMs > math.MaxUint64-ms {
		return &NumberError{Digits: digits, Err: ErrOverflow}
	}
	a.totalMs += ms
	return nil
}

// ParseMillis returns the total number of milliseconds described by s.
// The empty string is zero.
func ParseMillis(s string) (uint64, error) {
	var acc accumulator
	inUnit := false
	for _, c := range s {
		if c >= '0' && c <= '9' {
			// a new digit run after unit characters closes the previous segment
			if inUnit && acc.digits.Len() > 0 {
				if err := acc.flush(); err != nil {
					return 0, err
				}
			}
			acc.digits.WriteRune(c)
			inUnit = false
			continue
		}
		inUnit = true
		acc.unit.WriteRune(c)
	}
	if err := acc.flush(); err != nil {
		return 0, err
	}
	return acc.totalMs, nil
}

// Parse converts s into a time.Duration.
func Parse(s string) (time.Duration, error) {
	ms, err := ParseMillis(s)
	if err != nil {
		return 0, err
	}
	if ms > uint64(math.MaxInt64/int64(time.Millisecond)) {
		return 0, &NumberError{Digits: strconv.FormatUint(ms, 10), Err: ErrOverflow}
	}
	return time.Duration(ms) * time.Millisecond, nil
}
