// Package value converts between DynamoDB attribute values and the typed
// temporal wrappers tessera stores: timestamps, dates and times of day.
//
// Every wrapper implements [Value]. The set of wrappers is closed: [Timestamp],
// [Date], [TimeOfDay] and [Other]. Anything that is not a wrapper is handed to
// the attributevalue package unchanged.
package value

import (
	"fmt"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindOther Kind = iota
	KindTimestamp
	KindDate
	KindTime
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTimestamp:
		return "timestamp"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	default:
		return "other"
	}
}

// DefaultTimeFormat renders a TimeOfDay as HH:MM:SS.
const DefaultTimeFormat = "15:04:05"

// Value is a store-native typed value.
type Value interface {
	// Kind returns the variant tag.
	Kind() Kind

	// Primitive returns the comparable form of the value.
	Primitive() any

	sealed()
}

// Timestamp is a point in time with millisecond precision.
type Timestamp struct {
	ms int64
}

// NewTimestamp returns a Timestamp for the given Unix milliseconds.
func NewTimestamp(ms int64) Timestamp { return Timestamp{ms: ms} }

// TimestampOf converts t to a Timestamp. Sub-second precision is dropped.
func TimestampOf(t time.Time) Timestamp { return Timestamp{ms: t.Unix() * 1000} }

// Now returns the current time truncated to whole seconds.
func Now() Timestamp { return TimestampOf(time.Now()) }

// Kind returns KindTimestamp.
func (t Timestamp) Kind() Kind { return KindTimestamp }

// Primitive returns the Unix milliseconds as an int64.
func (t Timestamp) Primitive() any { return t.ms }

// Millis returns the Unix milliseconds.
func (t Timestamp) Millis() int64 { return t.ms }

// Seconds returns the whole Unix seconds.
func (t Timestamp) Seconds() int64 { return t.ms / 1000 }

// Time returns the timestamp as a UTC time.Time.
func (t Timestamp) Time() time.Time { return time.UnixMilli(t.ms).UTC() }

// String formats the timestamp as RFC 3339.
func (t Timestamp) String() string { return t.Time().Format(time.RFC3339) }

func (Timestamp) sealed() {}

// Date is a calendar day stored as days since the Unix epoch.
type Date struct {
	days int64
}

const secondsPerDay = 24 * 60 * 60

// NewDate returns a Date for the given number of days since the epoch.
func NewDate(days int64) Date { return Date{days: days} }

// DateOf returns the UTC calendar day containing t.
func DateOf(t time.Time) Date {
	u := t.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return Date{days: midnight.Unix() / secondsPerDay}
}

// Kind returns KindDate.
func (d Date) Kind() Kind { return KindDate }

// Primitive returns the days since the epoch as an int64.
func (d Date) Primitive() any { return d.days }

// Days returns the days since the epoch.
func (d Date) Days() int64 { return d.days }

// Seconds returns the Unix seconds of the day's UTC midnight.
func (d Date) Seconds() int64 { return d.days * secondsPerDay }

// Time returns the day's UTC midnight.
func (d Date) Time() time.Time { return time.Unix(d.Seconds(), 0).UTC() }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.Time().Format(time.DateOnly) }

func (Date) sealed() {}

// TimeOfDay is a wall-clock time stored as seconds since midnight.
type TimeOfDay struct {
	secs int64
}

// NewTimeOfDay returns a TimeOfDay for the given seconds since midnight.
func NewTimeOfDay(secs int64) TimeOfDay { return TimeOfDay{secs: secs} }

// TimeOfDayOf returns the UTC wall-clock time of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	u := t.UTC()
	return TimeOfDay{secs: int64(u.Hour()*3600 + u.Minute()*60 + u.Second())}
}

// Kind returns KindTime.
func (t TimeOfDay) Kind() Kind { return KindTime }

// Primitive returns the seconds since midnight as an int64.
func (t TimeOfDay) Primitive() any { return t.secs }

// Seconds returns the seconds since midnight.
func (t TimeOfDay) Seconds() int64 { return t.secs }

func (TimeOfDay) sealed() {}

// Format renders the time of day with a Go time layout. An empty layout
// uses DefaultTimeFormat.
func (t TimeOfDay) Format(layout string) string {
	if layout == "" {
		layout = DefaultTimeFormat
	}
	return time.Unix(t.secs, 0).UTC().Format(layout)
}

// String formats the time with DefaultTimeFormat.
func (t TimeOfDay) String() string { return t.Format(DefaultTimeFormat) }

// Other holds a value with no dedicated wrapper.
type Other struct {
	V any
}

// Kind returns KindOther.
func (o Other) Kind() Kind { return KindOther }

// Primitive returns the wrapped value.
func (o Other) Primitive() any { return o.V }

func (Other) sealed() {}

// Unwrap returns the primitive form of v if it is a Value, or v itself.
func Unwrap(v any) any {
	switch w := v.(type) {
	case Timestamp:
		return w.ms
	case Date:
		return w.days
	case TimeOfDay:
		return w.secs
	case Other:
		return Unwrap(w.V)
	case *Timestamp:
		if w == nil {
			return nil
		}
		return w.ms
	case *Date:
		if w == nil {
			return nil
		}
		return w.days
	case *TimeOfDay:
		if w == nil {
			return nil
		}
		return w.secs
	}
	return v
}

// IsValue reports whether v is one of the store-native wrappers.
func IsValue(v any) bool {
	switch v.(type) {
	case Timestamp, Date, TimeOfDay, Other, *Timestamp, *Date, *TimeOfDay:
		return true
	}
	return false
}

// Wrap builds the wrapper of the given kind from a primitive. Integer-like
// primitives are interpreted in the wrapper's own unit (milliseconds, days,
// seconds since midnight).
func Wrap(kind Kind, primitive any) (Value, error) {
	if v, ok := primitive.(Value); ok && v.Kind() == kind {
		return v, nil
	}
	if kind == KindOther {
		return Other{V: primitive}, nil
	}
	n, ok := toInt64(Unwrap(primitive))
	if !ok {
		return nil, fmt.Errorf("%w: cannot wrap %T as %s", ErrUnsupported, primitive, kind)
	}
	switch kind {
	case KindTimestamp:
		return Timestamp{ms: n}, nil
	case KindDate:
		return Date{days: n}, nil
	case KindTime:
		return TimeOfDay{secs: n}, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %d", ErrUnsupported, int(kind))
}
