package value

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrUnsupported is returned when a value cannot be converted to the requested form.
var ErrUnsupported = errors.New("tessera: unsupported value conversion")

var decoder = attributevalue.NewDecoder(func(o *attributevalue.DecoderOptions) {
	o.UseNumber = true
})

// Encode converts v to a DynamoDB attribute value. Wrappers are stored as
// numbers in their own unit; every other value uses attributevalue.Marshal.
func Encode(v any) (types.AttributeValue, error) {
	switch w := v.(type) {
	case types.AttributeValue:
		return w, nil
	case Timestamp, Date, TimeOfDay, *Timestamp, *Date, *TimeOfDay:
		p := Unwrap(w)
		if p == nil {
			return &types.AttributeValueMemberNULL{Value: true}, nil
		}
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(p.(int64), 10)}, nil
	case Other:
		return Encode(w.V)
	}
	return attributevalue.Marshal(v)
}

// Decode converts an attribute value to a Go value. Numbers decode to the
// wrapper named by kind; KindOther decodes generically, keeping numbers as
// attributevalue.Number so no precision is lost.
func Decode(av types.AttributeValue, kind Kind) (any, error) {
	if av == nil {
		return nil, nil
	}
	if _, ok := av.(*types.AttributeValueMemberNULL); ok {
		return nil, nil
	}
	if kind != KindOther {
		n, ok := av.(*types.AttributeValueMemberN)
		if !ok {
			return nil, fmt.Errorf("%w: %s column holds %T", ErrUnsupported, kind, av)
		}
		i, err := parseInt(n.Value)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return Wrap(kind, i)
	}
	var out any
	if err := decoder.Decode(av, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Equal reports whether a and b hold the same primitive once unwrapped.
// Two wrappers are never compared by identity.
func Equal(a, b any) bool {
	pa, pb := Unwrap(a), Unwrap(b)
	if pa == nil || pb == nil {
		return pa == nil && pb == nil
	}
	if ia, ok := toInt64Strict(pa); ok {
		if ib, ok := toInt64Strict(pb); ok {
			return ia == ib
		}
	}
	if fa, ok := toFloat64(pa); ok {
		if fb, ok := toFloat64(pb); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(pa, pb)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.DateTime,
	time.DateOnly,
}

// ToTimestamp coerces v to a Timestamp. Numbers and numeric strings are
// read as Unix seconds.
func ToTimestamp(v any) (Timestamp, error) {
	switch w := v.(type) {
	case Timestamp:
		return w, nil
	case *Timestamp:
		if w != nil {
			return *w, nil
		}
	case Date:
		return Timestamp{ms: w.Seconds() * 1000}, nil
	case *Date:
		if w != nil {
			return Timestamp{ms: w.Seconds() * 1000}, nil
		}
	case time.Time:
		return TimestampOf(w), nil
	case *time.Time:
		if w != nil {
			return TimestampOf(*w), nil
		}
	case string:
		if n, err := parseInt(w); err == nil {
			return Timestamp{ms: n * 1000}, nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, w); err == nil {
				return TimestampOf(t), nil
			}
		}
		return Timestamp{}, fmt.Errorf("%w: unparseable date %q", ErrUnsupported, w)
	case Other:
		return ToTimestamp(w.V)
	}
	if n, ok := toInt64(v); ok {
		return Timestamp{ms: n * 1000}, nil
	}
	return Timestamp{}, fmt.Errorf("%w: %T is not a date", ErrUnsupported, v)
}

// ToTime coerces v to a UTC time.Time at second precision.
func ToTime(v any) (time.Time, error) {
	ts, err := ToTimestamp(v)
	if err != nil {
		return time.Time{}, err
	}
	return ts.Time(), nil
}

// CastString renders v for display. A TimeOfDay uses layout.
func CastString(v any, layout string) string {
	switch w := v.(type) {
	case nil:
		return ""
	case TimeOfDay:
		return w.Format(layout)
	case *TimeOfDay:
		if w == nil {
			return ""
		}
		return w.Format(layout)
	case string:
		return w
	case fmt.Stringer:
		return w.String()
	}
	return fmt.Sprint(Unwrap(v))
}

// CastInt converts v for arithmetic. A TimeOfDay yields its seconds.
func CastInt(v any) (int64, error) {
	if w, ok := v.(TimeOfDay); ok {
		return w.secs, nil
	}
	p := Unwrap(v)
	if n, ok := toInt64(p); ok {
		return n, nil
	}
	switch b := p.(type) {
	case bool:
		if b {
			return 1, nil
		}
		return 0, nil
	case string:
		if n, err := parseInt(strings.TrimSpace(b)); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %T is not an integer", ErrUnsupported, v)
}

// CastFloat converts v to a float64.
func CastFloat(v any) (float64, error) {
	if f, ok := toFloat64(Unwrap(v)); ok {
		return f, nil
	}
	if s, ok := v.(string); ok {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	return 0, fmt.Errorf("%w: %T is not a number", ErrUnsupported, v)
}

// IsNumeric reports whether v is a number or a string holding one.
func IsNumeric(v any) bool {
	p := Unwrap(v)
	if _, ok := toFloat64(p); ok {
		return true
	}
	if s, ok := p.(string); ok {
		_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return err == nil
	}
	return false
}

func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// toInt64Strict accepts integer kinds and integral attributevalue.Numbers only.
func toInt64Strict(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case attributevalue.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	if i, ok := toInt64Strict(v); ok {
		return i, true
	}
	switch n := v.(type) {
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	case attributevalue.Number:
		f, err := n.Float64()
		return int64(f), err == nil
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	if i, ok := toInt64Strict(v); ok {
		return float64(i), true
	}
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case attributevalue.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ToTimeOfDay coerces v to a TimeOfDay. Strings are parsed with layout
// (DefaultTimeFormat when empty); numbers are seconds since midnight.
func ToTimeOfDay(v any, layout string) (TimeOfDay, error) {
	switch w := v.(type) {
	case TimeOfDay:
		return w, nil
	case *TimeOfDay:
		if w != nil {
			return *w, nil
		}
	case time.Time:
		return TimeOfDayOf(w), nil
	case string:
		if layout == "" {
			layout = DefaultTimeFormat
		}
		t, err := time.Parse(layout, w)
		if err != nil {
			return TimeOfDay{}, fmt.Errorf("%w: unparseable time %q", ErrUnsupported, w)
		}
		return TimeOfDayOf(t), nil
	case Other:
		return ToTimeOfDay(w.V, layout)
	}
	if n, ok := toInt64(v); ok {
		return TimeOfDay{secs: n}, nil
	}
	return TimeOfDay{}, fmt.Errorf("%w: %T is not a time of day", ErrUnsupported, v)
}
