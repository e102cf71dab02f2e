package keyref

import (
	"fmt"
	"testing"
)

func TestRef(t *testing.T) {
	tests := []struct {
		table    string
		values   []any
		expected string
	}{
		{"users", []any{1}, "users#1"},
		{"events", []any{"acme", 20240102, "x"}, "events#acme#20240102#x"},
		{"users", nil, "users"},
		{"users", []any{"a#b"}, "users#a%23b"},
		{"users", []any{"50%"}, "users#50%25"},
		{"users", []any{nil}, "users#<nil>"},
	}

	for _, tt := range tests {
		result := Ref(tt.table, tt.values...)
		if result != tt.expected {
			t.Errorf("Ref(%q, %v) = %q, want %q", tt.table, tt.values, result, tt.expected)
		}
	}
}

func TestRef_EscapingAvoidsCollisions(t *testing.T) {
	// ("a#b", "c") and ("a", "b#c") must not share a ref
	if Ref("t", "a#b", "c") == Ref("t", "a", "b#c") {
		t.Error("expected distinct refs")
	}
}

func TestStripe_SingleStripe(t *testing.T) {
	for _, n := range []int{-1, 0, 1} {
		if s := Stripe("users#1", n); s != 0 {
			t.Errorf("Stripe(_, %d) = %d, want 0", n, s)
		}
	}
}

func TestStripe_Deterministic(t *testing.T) {
	ref := "orders#42"
	first := Stripe(ref, 16)
	for i := 0; i < 100; i++ {
		if s := Stripe(ref, 16); s != first {
			t.Fatalf("Stripe not deterministic: got %d and %d", first, s)
		}
	}
}

func TestStripe_Distribution(t *testing.T) {
	// 1000 refs across 8 stripes should touch every stripe and stay in range
	n := 8
	counts := make(map[int]int)
	for i := 0; i < 1000; i++ {
		s := Stripe(fmt.Sprintf("orders#%d", i), n)
		if s < 0 || s >= n {
			t.Fatalf("stripe %d out of range", s)
		}
		counts[s]++
	}
	if len(counts) != n {
		t.Errorf("expected %d stripes in use, got %d", n, len(counts))
	}
}
