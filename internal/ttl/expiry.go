package ttl

import (
	"database/sql/driver"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Expiry is a nullable absolute expiry instant. The zero value means "never".
type Expiry struct {
	Micros int64
	Valid  bool
}

// Never returns an Expiry that does not expire.
func Never() Expiry { return Expiry{} }

// At wraps a stored microsecond timestamp.
func At(micros int64) Expiry { return Expiry{Micros: micros, Valid: true} }

// After returns an Expiry seconds from now.
func After(seconds int64) Expiry { return At(ToAbsolute(seconds)) }

// FromSeconds converts an optional relative duration; nil means never.
func FromSeconds(seconds *int64) Expiry {
	if seconds == nil {
		return Never()
	}
	return After(*seconds)
}

// Expired reports whether e is set and has passed.
func (e Expiry) Expired() bool {
	if !e.Valid {
		return false
	}
	return IsExpired(e.Micros)
}

// Time returns the instant in UTC. ok is false when e is unset or corrupt.
func (e Expiry) Time() (t time.Time, ok bool) {
	if !e.Valid || !Valid(e.Micros) {
		return time.Time{}, false
	}
	return time.UnixMicro(e.Micros).UTC(), true
}

// Remaining returns the time left before e expires. ok is false when e never
// expires; a passed or corrupt instant returns zero.
func (e Expiry) Remaining() (d time.Duration, ok bool) {
	if !e.Valid {
		return 0, false
	}
	t, valid := e.Time()
	if !valid {
		return 0, true
	}
	if d = t.Sub(now()); d < 0 {
		d = 0
	}
	return d, true
}

// Scan implements sql.Scanner. Values that are not numbers are kept as a
// corrupt instant so that readers see them as expired.
func (e *Expiry) Scan(value any) error {
	if value == nil {
		*e = Never()
		return nil
	}
	switch v := value.(type) {
	case []byte:
		value = strings.TrimSpace(string(v))
	case string:
		value = strings.TrimSpace(v)
	case time.Time:
		*e = At(v.UnixMicro())
		return nil
	}
	n, err := cast.ToInt64E(value)
	if err != nil {
		slog.Warn("unreadable expiry in storage", "value", value, "error", err)
		*e = At(corrupt)
		return nil
	}
	*e = At(n)
	return nil
}

// Value implements driver.Valuer.
func (e Expiry) Value() (driver.Value, error) {
	if !e.Valid {
		return nil, nil
	}
	return e.Micros, nil
}
