package ratelimit

import "testing"

func TestAllowConsumesBucket(t *testing.T) {
	l := New()

	// capacity 2, effectively no refill within the test
	if !l.Allow("quote", 2, 0.001) {
		t.Fatal("first token denied")
	}
	if !l.Allow("quote", 2, 0.001) {
		t.Fatal("second token denied")
	}
	if l.Allow("quote", 2, 0.001) {
		t.Fatal("bucket not exhausted")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()

	if !l.Allow("a", 1, 0.001) {
		t.Fatal("key a denied")
	}
	if l.Allow("a", 1, 0.001) {
		t.Fatal("key a not exhausted")
	}
	if !l.Allow("b", 1, 0.001) {
		t.Fatal("key b affected by key a")
	}
}
