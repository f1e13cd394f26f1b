package ntime

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DateLayout is the strict layout accepted for user supplied dates.
const DateLayout = "2006-01-02"

// NTime represents a nullable time.Time.
// It can be used as a scan destination and as a query argument.
type NTime struct {
	time    time.Time
	isValid bool // false when Time is null, possibly redundant
}

// Scan implements the Scanner interface. SQLite hands back either a parsed time, for columns declared as datetime,
// or the raw text written by Value.
func (nt *NTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*nt = NTime{}
	case time.Time:
		*nt = NTime{v.UTC(), true}
	case string:
		return nt.parse(v)
	case []byte:
		return nt.parse(string(v))
	default:
		return fmt.Errorf("ntime: can't scan %T", value)
	}
	return nil
}

func (nt *NTime) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("ntime: %w", err)
	}
	*nt = NTime{parsed.UTC(), true}
	return nil
}

// Value implements the driver Valuer interface.
// UTC RFC3339 text keeps lexical and chronological order aligned, which listings rely on.
func (nt NTime) Value() (driver.Value, error) {
	if nt.isValid {
		return driver.Value(nt.time.UTC().Format(time.RFC3339)), nil
	}
	return nil, nil
}

func Now() NTime {
	return From(time.Now())
}

func From(t time.Time) NTime {
	return NTime{time: t.UTC().Truncate(time.Second), isValid: true}
}

// ParseDate reads a strict YYYY-MM-DD date, as midnight UTC.
func ParseDate(s string) (NTime, error) {
	parsed, err := time.Parse(DateLayout, s)
	if err != nil {
		return NTime{}, err
	}
	return From(parsed), nil
}

func (nt NTime) Time() time.Time {
	return nt.time
}

func (nt NTime) IsValid() bool {
	return nt.isValid
}

// Format returns an empty string for null times, so templates needn't check.
func (nt NTime) Format(layout string) string {
	if !nt.isValid {
		return ""
	}
	return nt.time.Format(layout)
}
