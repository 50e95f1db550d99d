package fetcher

import (
	"testing"
	"time"
)

func TestTimeoutOrDefault(t *testing.T) {
	cases := []struct {
		name     string
		d        time.Duration
		fallback time.Duration
		want     time.Duration
	}{
		{"explicit value wins", 5 * time.Second, defaultElementTimeout, 5 * time.Second},
		{"zero falls back", 0, defaultElementTimeout, defaultElementTimeout},
		{"negative falls back", -time.Second, defaultNavTimeout, defaultNavTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := timeoutOrDefault(tc.d, tc.fallback); got != tc.want {
				t.Errorf("timeoutOrDefault(%v, %v) = %v, want %v", tc.d, tc.fallback, got, tc.want)
			}
		})
	}
}

func TestBrowserTimeoutBoundsAreNonZero(t *testing.T) {
	// Rod element queries poll until the node exists, so an unbounded
	// lookup never returns when the selector matches nothing. The package
	// defaults must keep every call site bounded even with a zero config.
	if defaultNavTimeout <= 0 || defaultElementTimeout <= 0 {
		t.Fatalf("default timeouts must be positive: nav=%v element=%v", defaultNavTimeout, defaultElementTimeout)
	}
}
