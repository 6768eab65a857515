// Package typeid generates the prefixed, time-sortable ids used for stored
// entities and canvas nodes, e.g. "node_01h455vb4pex5vsknk084sn02q".
package typeid

import (
	"errors"
	"fmt"

	"go.jetify.com/typeid/v2"
)

var ErrInvalid = errors.New("invalid id")

const (
	PrefixUser     = "user"
	PrefixProject  = "proj"
	PrefixSnapshot = "snap"
	PrefixNode     = "node"
	PrefixAsset    = "asset"
)

// New returns an id with the given prefix. The suffix is a UUIDv7, so ids
// from one process sort by creation time.
func New(prefix string) string {
	return typeid.MustGenerate(prefix).String()
}

func NewUserID() string     { return New(PrefixUser) }
func NewProjectID() string  { return New(PrefixProject) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewNodeID() string     { return New(PrefixNode) }
func NewAssetID() string    { return New(PrefixAsset) }

// PrefixOf parses id and returns its prefix.
func PrefixOf(id string) (string, error) {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalid, id, err)
	}
	return parsed.Prefix(), nil
}

// Validate checks that id parses and carries the expected prefix.
func Validate(id, want string) error {
	got, err := PrefixOf(id)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w %q: prefix %q, want %q", ErrInvalid, id, got, want)
	}
	return nil
}

// Is reports whether id is a well-formed id of the given kind.
func Is(id, prefix string) bool {
	return Validate(id, prefix) == nil
}
