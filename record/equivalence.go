package record

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	json "github.com/go-json-experiment/json"

	"github.com/jacentio/tessera/value"
)

// floatTolerance is four times the float64 machine epsilon.
const floatTolerance = 4 * 2.220446049250313e-16

// Equivalent reports whether the current value of column is equivalent to
// its original value. A column that was never loaded or saved is never
// equivalent.
func (r *Record) Equivalent(column string) bool {
	original, ok := r.original[column]
	if !ok {
		return false
	}
	return equivalent(r.attributes[column], original, r.schema.casts[column], r.schema.timeFormat)
}

func equivalent(current, original any, cast Cast, layout string) bool {
	if reflect.DeepEqual(current, original) {
		return true
	}
	if current == nil {
		return false
	}

	switch {
	case cast.isDate() || isDateValue(current) || isDateValue(original):
		a, err := value.ToTimestamp(inUnitOf(current, original))
		if err != nil {
			return false
		}
		b, err := value.ToTimestamp(inUnitOf(original, current))
		if err != nil {
			return false
		}
		return a.Millis() == b.Millis()

	case cast == CastFloat:
		if original == nil {
			return false
		}
		a, err := value.CastFloat(current)
		if err != nil {
			return false
		}
		b, err := value.CastFloat(original)
		if err != nil {
			return false
		}
		return math.Abs(a-b) < floatTolerance

	case cast == CastJSON || cast == CastCollection:
		a, err := canonicalJSON(current)
		if err != nil {
			return false
		}
		b, err := canonicalJSON(original)
		if err != nil {
			return false
		}
		return bytes.Equal(a, b)

	case cast == CastInt || cast == CastString || cast == CastBool || cast == CastTime:
		if original == nil {
			return false
		}
		a, err := castValue(cast, current, layout)
		if err != nil {
			return false
		}
		b, err := castValue(cast, original, layout)
		if err != nil {
			return false
		}
		return a == b

	case value.IsValue(current):
		return value.Equal(current, original)
	}

	return value.IsNumeric(current) && value.IsNumeric(original) &&
		numericString(current) == numericString(original)
}

func isDateValue(v any) bool {
	switch v.(type) {
	case value.Timestamp, value.Date, *value.Timestamp, *value.Date, time.Time, *time.Time:
		return true
	}
	return false
}

// inUnitOf wraps a bare number v in the kind of its date wrapper peer, so a
// Timestamp compares with its millisecond primitive and a Date with its day
// count. Without a wrapper peer, v is returned unchanged.
func inUnitOf(v, peer any) any {
	if value.IsValue(v) {
		return v
	}
	if _, ok := v.(string); ok || !value.IsNumeric(v) {
		return v
	}

	var kind value.Kind
	switch p := peer.(type) {
	case value.Timestamp:
		kind = value.KindTimestamp
	case *value.Timestamp:
		if p == nil {
			return v
		}
		kind = value.KindTimestamp
	case value.Date:
		kind = value.KindDate
	case *value.Date:
		if p == nil {
			return v
		}
		kind = value.KindDate
	default:
		return v
	}

	w, err := value.Wrap(kind, v)
	if err != nil {
		return v
	}
	return w
}

func numericString(v any) string {
	return fmt.Sprint(value.Unwrap(v))
}

// canonicalJSON encodes v with sorted object keys. JSON text is decoded
// first so formatting differences do not matter.
func canonicalJSON(v any) ([]byte, error) {
	decoded, err := decodeJSON(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalize(decoded), json.Deterministic(true))
}

// normalize converts store numbers and value wrappers inside v to plain
// JSON-friendly values.
func normalize(v any) any {
	switch w := v.(type) {
	case attributevalue.Number:
		if f, err := w.Float64(); err == nil {
			return f
		}
		return string(w)
	case map[string]any:
		out := make(map[string]any, len(w))
		for k, e := range w {
			out[k] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(w))
		for i, e := range w {
			out[i] = normalize(e)
		}
		return out
	}
	if value.IsValue(v) {
		return value.Unwrap(v)
	}
	if f, err := value.CastFloat(v); err == nil && isNumberKind(v) {
		return f
	}
	return v
}

func isNumberKind(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
