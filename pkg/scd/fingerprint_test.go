package scd

import (
	"testing"

	"github.com/scdkit/scd/pkg/store"
)

func TestFingerprintDeterministic(t *testing.T) {
	order := []string{"a", "b", "c"}
	r1 := store.Row{"a": int64(1), "b": "x", "c": nil}
	r2 := store.Row{"a": int64(1), "b": "x", "c": nil}
	if fingerprint(r1, order) != fingerprint(r2, order) {
		t.Fatal("identical rows produced different fingerprints")
	}
}

func TestFingerprintOrderSensitive(t *testing.T) {
	r := store.Row{"a": "x", "b": "y"}
	if fingerprint(r, []string{"a", "b"}) == fingerprint(r, []string{"b", "a"}) {
		t.Fatal("different attribute order should (almost always) change the digest")
	}
}

func TestFingerprintIgnoresExtraKeys(t *testing.T) {
	order := []string{"a"}
	r1 := store.Row{"a": "x"}
	r2 := store.Row{"a": "x", "scd_id": int64(99), "scd_hash": "whatever"}
	if fingerprint(r1, order) != fingerprint(r2, order) {
		t.Fatal("fingerprint must only read attributes named in order")
	}
}

func TestFingerprintNumericTypeInsensitive(t *testing.T) {
	order := []string{"n"}
	r1 := store.Row{"n": int64(42)}
	r2 := store.Row{"n": float64(42)}
	r3 := store.Row{"n": int32(42)}
	h1, h2, h3 := fingerprint(r1, order), fingerprint(r2, order), fingerprint(r3, order)
	if h1 != h2 || h2 != h3 {
		t.Fatalf("expected same fingerprint across numeric types, got %s %s %s", h1, h2, h3)
	}
}

func TestFingerprintLength(t *testing.T) {
	h := fingerprint(store.Row{"a": "x"}, []string{"a"})
	if len(h) != 40 {
		t.Fatalf("expected 40-char hex digest, got %d chars: %s", len(h), h)
	}
}

func TestCanonicalBoolAndNil(t *testing.T) {
	if canonical(nil) != "None" {
		t.Fatal("nil must canonicalize to None")
	}
	if canonical(true) != "True" || canonical(false) != "False" {
		t.Fatal("bools must canonicalize to True/False")
	}
}

func TestNaturalKeyNumericTypeInsensitive(t *testing.T) {
	lookup := []string{"order"}
	r1 := store.Row{"order": int64(7)}
	r2 := store.Row{"order": float64(7)}
	if naturalKey(r1, lookup) != naturalKey(r2, lookup) {
		t.Fatal("natural key should collide across numeric representations of the same value")
	}
}
