// Package artifact provides the per-run store of named tabular values
// produced by flow nodes. Artifacts are published once and never mutated;
// a node that wants to transform data produces a new artifact.
package artifact

import (
	"time"

	"github.com/zclconf/go-cty/cty"
)

// Artifact is the opaque value produced by a node or seeded as an external
// root input. Fingerprint is the identity of the computation (or content)
// that produced it, letting downstream fingerprints compose without
// rehashing the payload.
type Artifact struct {
	Name        string
	Fingerprint string
	Value       cty.Value
	ProducedBy  string
	CreatedAt   time.Time
}
