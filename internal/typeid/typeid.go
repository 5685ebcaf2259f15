// Package typeid mints the prefixed, sortable identifiers used across the
// sphere editor. Points and groups get handles that stay stable while the
// scene's arrays are reordered by deletions. Projects, their snapshots and
// export runs get ids that can be validated at the HTTP edge before any
// store is touched.
package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixPoint    = "pt"   // scene point handle
	PrefixGroup    = "grp"  // rigid point group
	PrefixProject  = "proj" // stored project
	PrefixSnapshot = "snap" // saved document version
	PrefixExport   = "exp"  // one rendered export, logged and returned in X-Export-Id
)

// New returns a fresh id with the given prefix.
func New(prefix string) string {
	return typeid.MustGenerate(prefix).String()
}

func NewPointID() string    { return New(PrefixPoint) }
func NewGroupID() string    { return New(PrefixGroup) }
func NewProjectID() string  { return New(PrefixProject) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewExportID() string   { return New(PrefixExport) }

// Validate reports whether id is well formed and carries want as its prefix.
func Validate(id, want string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("malformed id %q: %w", id, err)
	}
	if got := parsed.Prefix(); got != want {
		return fmt.Errorf("id %q is a %q id, want %q", id, got, want)
	}
	return nil
}
