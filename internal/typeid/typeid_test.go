package typeid

import (
	"errors"
	"strings"
	"testing"
)

func TestNewHasPrefix(t *testing.T) {
	gens := map[string]func() string{
		PrefixUser:     NewUserID,
		PrefixProject:  NewProjectID,
		PrefixSnapshot: NewSnapshotID,
		PrefixNode:     NewNodeID,
		PrefixAsset:    NewAssetID,
	}
	for prefix, gen := range gens {
		id := gen()
		if !strings.HasPrefix(id, prefix+"_") {
			t.Errorf("id %q missing %q prefix", id, prefix)
		}
		if !Is(id, prefix) {
			t.Errorf("Is(%q, %q) = false", id, prefix)
		}
	}
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := range 1000 {
		id := NewNodeID()
		if seen[id] {
			t.Fatalf("duplicate id %q after %d generations", id, i)
		}
		seen[id] = true
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
		ok   bool
	}{
		{"match", NewProjectID(), PrefixProject, true},
		{"wrong prefix", NewProjectID(), PrefixNode, false},
		{"garbage", "not an id", PrefixNode, false},
		{"bad suffix", "proj_missing", PrefixProject, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id, tt.want)
			if tt.ok != (err == nil) {
				t.Fatalf("Validate(%q) = %v", tt.id, err)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestPrefixOf(t *testing.T) {
	got, err := PrefixOf(NewAssetID())
	if err != nil || got != PrefixAsset {
		t.Fatalf("PrefixOf = %q, %v", got, err)
	}
}
