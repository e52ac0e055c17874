// Package ttl converts relative durations into absolute expiry instants and
// decides whether a stored instant has passed.
//
// Instants are stored as microseconds since the Unix epoch, the same unit used
// by the "ttl" columns of the tokens and shorters tables. Despite the column
// name, a stored ttl is never a duration.
package ttl

import (
	"log/slog"
	"math"
	"time"
)

var (
	// minMicros and maxMicros bound the instants we accept as valid.
	minMicros = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMicro()
	maxMicros = time.Date(9999, time.December, 31, 23, 59, 59, 999999000, time.UTC).UnixMicro()
)

// now is replaced in tests.
var now = time.Now

// ToAbsolute returns now + seconds as a microsecond timestamp.
// Zero or negative durations yield an instant that is already expired.
func ToAbsolute(seconds int64) int64 {
	base := now().UnixMicro()
	if seconds > (maxMicros-base)/1_000_000 {
		return maxMicros
	}
	if seconds < (minMicros-base)/1_000_000 {
		return minMicros
	}
	return base + seconds*1_000_000
}

// Valid reports whether micros lies in the representable range.
func Valid(micros int64) bool {
	return micros >= minMicros && micros <= maxMicros
}

// IsExpired reports whether the stored instant has passed. An instant that
// cannot be represented is treated as expired and logged.
func IsExpired(micros int64) bool {
	if !Valid(micros) {
		slog.Warn("invalid expiry timestamp, treating as expired", "ttl", micros)
		return true
	}
	return now().UnixMicro() >= micros
}

// corrupt marks a stored value that could not be read as a number.
const corrupt int64 = math.MinInt64
