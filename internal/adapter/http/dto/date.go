package dto

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date carried as "2006-01-02" in request and response
// bodies. Due dates and delinquency anchors are calendar dates, not
// instants; the time component is always midnight UTC.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	d.Time = t

	return nil
}

// IsZero reports whether the date was absent from the request.
func (d Date) IsZero() bool {
	return d.Time.IsZero()
}
