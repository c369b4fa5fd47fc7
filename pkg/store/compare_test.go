package store

import "testing"

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil/nil", nil, nil, true},
		{"nil/value", nil, 1, false},
		{"int/float", int64(3), float64(3), true},
		{"string/string", "USD", "USD", true},
		{"string mismatch", "USD", "EUR", false},
		{"numeric string vs int", "10", 10, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Equal(c.a, c.b); got != c.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	row := Row{"order": "1", "line": int64(10), "status": "Completed"}

	if !Matches(row, Eq("order", "1")) {
		t.Fatal("expected single equality match")
	}
	if Matches(row, Eq("order", "2")) {
		t.Fatal("expected mismatch")
	}

	conj := All(Eq("order", "1"), Eq("line", int64(10)))
	if !Matches(row, conj) {
		t.Fatal("expected conjunction to match")
	}

	conj2 := All(Eq("order", "1"), Eq("line", int64(20)))
	if Matches(row, conj2) {
		t.Fatal("expected conjunction to fail on second clause")
	}
}
