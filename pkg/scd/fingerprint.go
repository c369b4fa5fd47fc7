package scd

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/scdkit/scd/pkg/store"
)

// fingerprint computes the C1 row digest: a SHA-1 hash over the canonical
// string form of each attribute in order, concatenated with no separator.
// The digest is rendered as 40 lowercase hex characters. order is always
// lookup attributes followed by type1 attributes followed by type2
// attributes, in the order the engine was configured with — any other keys
// present in row are ignored.
func fingerprint(row store.Row, order []string) string {
	h := sha1.New()
	for _, attr := range order {
		h.Write([]byte(canonical(row[attr])))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// canonical renders v the way the fingerprint requires: nil becomes "None",
// booleans become "True"/"False", integers render without grouping or
// locale formatting, and everything else falls back to fmt's default
// verb. Two values that differ only by numeric type (int32 vs int64) but
// carry the same mathematical value render identically.
func canonical(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return t
	case int:
		return strconv.FormatInt(int64(t), 10)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return formatFloat(float64(t))
	case float64:
		return formatFloat(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// formatFloat renders an integral float without a trailing ".0" or decimal
// point, and a non-integral float with the minimal number of digits that
// round-trip — matching how the dimension's canonicalization treats
// timestamps and other whole-number-valued columns encoded as floats.
func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// naturalKey builds the composite lookup-attribute key used to index a row
// in the current-state index and to address it in "all versions of key"
// queries. It reuses the fingerprint's canonical rendering so that, e.g.,
// int64(7) and float64(7) collide to the same key.
func naturalKey(row store.Row, lookupAtts []string) string {
	parts := make([]string, len(lookupAtts))
	for i, a := range lookupAtts {
		parts[i] = canonical(row[a])
	}
	return joinKey(parts)
}

const keySeparator = "\x1f"

func joinKey(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += keySeparator
		}
		out += p
	}
	return out
}
