package id

import (
	"strings"
	"testing"
)

func TestNewRequestID_Format(t *testing.T) {
	got := NewRequestID()
	if len(got) != 36 || strings.Count(got, "-") != 4 {
		t.Fatalf("not a canonical uuid: %q", got)
	}
	if !Valid(got) {
		t.Fatalf("Valid(%q) = false", got)
	}
}

func TestNewRequestID_Uniqueness(t *testing.T) {
	const n = 200
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := NewRequestID()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id after %d iterations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestValid(t *testing.T) {
	for _, s := range []string{
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88",
		"3F9A6A1B-3D54-4FBE-8B3A-6B3E8D6B2C88",
		" 3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88 ",
	} {
		if !Valid(s) {
			t.Fatalf("expected valid: %q", s)
		}
	}
	for _, s := range []string{
		"",
		"deadbeef",
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8",     // 31 chars
		"3f9a6a1b-3d54-0fbe-8b3a-6b3e8d6b2c88", // version 0
		"3f9a6a1b-3d54-4fbe-cb3a-6b3e8d6b2c88", // wrong variant
		"urn:uuid:3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88",
		"g" + strings.Repeat("a", 31),
	} {
		if Valid(s) {
			t.Fatalf("expected invalid: %q", s)
		}
	}
}
