package store

import (
	"fmt"
	"reflect"
	"strconv"
)

// Equal reports whether two raw attribute values compare equal, with numeric
// values compared numerically (so int64(3) and float64(3) match) and
// everything else falling back to its formatted string form. Two nils are
// always equal.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if af, aok := toFloat64(a); aok {
		if bf, bok := toFloat64(b); bok {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// Matches reports whether row satisfies filter.
func Matches(row Row, filter Filter) bool {
	if filter.IsConjunction() {
		for _, sub := range filter.And {
			if !Matches(row, sub) {
				return false
			}
		}
		return true
	}
	return Equal(row[filter.Field], filter.Value)
}

func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int()), true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return float64(rv.Uint()), true
		case reflect.Float32, reflect.Float64:
			return rv.Float(), true
		}
		return 0, false
	}
}
