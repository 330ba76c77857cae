// Package retry paces repeated attempts at an operation that may succeed
// once a transient condition clears, such as a port still held by a
// previous server.
package retry

import (
	"errors"
	"time"
)

// BackoffMode selects how the wait grows between attempts.
type BackoffMode string

const (
	BackoffFixed       BackoffMode = "fixed"
	BackoffLinear      BackoffMode = "linear"
	BackoffExponential BackoffMode = "exponential"
)

// Policy is a value type; the zero Policy is invalid.
type Policy struct {
	Mode       BackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // retries after the first failure
}

// PortBindPolicy waits a fixed half second between attempts on one port and
// gives up on it after 20 retries.
func PortBindPolicy() Policy {
	return Policy{Mode: BackoffFixed, Initial: 500 * time.Millisecond, Max: 500 * time.Millisecond, MaxRetries: 20}
}

// Delay is the wait before retry n (1-based). Growth is capped at Max.
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case BackoffFixed:
		d = p.Initial
	case BackoffExponential:
		d = p.Initial << (n - 1)
		if d <= 0 {
			d = p.Max
		}
	default:
		d = time.Duration(n) * p.Initial
	}
	return min(d, p.Max)
}

// Exhausted reports whether the given number of retries used the policy up.
func (p Policy) Exhausted(retries int) bool {
	return retries >= p.MaxRetries
}

// Validate rejects policies that can never wait or never stop.
func (p Policy) Validate() error {
	switch {
	case p.Initial <= 0:
		return errors.New("retry: initial delay must be positive")
	case p.Max < p.Initial:
		return errors.New("retry: max delay must be at least the initial delay")
	case p.MaxRetries < 0:
		return errors.New("retry: max retries cannot be negative")
	}
	return nil
}
