package vismesh

import (
	"errors"
	"fmt"
	"strings"
)

// Fatal conditions. Callers match them with errors.Is; the returned errors
// wrap them with the offending element.
var (
	// ErrGeometryConsistency reports input whose geometry cannot be
	// reconciled, e.g. a membrane element whose cells are not face neighbors.
	ErrGeometryConsistency = errors.New("geometry consistency error")

	// ErrInvariantViolation reports a mesh that breaks a serialization
	// invariant: a missing index tag, an undecomposed polyhedron, a domain
	// name that does not fit the requested output.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrUnsupportedConfiguration reports a dimension/scheme combination
	// that has no defined output.
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")

	// ErrInternal reports a broken correspondence between a kernel result
	// and the mesh it was computed from.
	ErrInternal = errors.New("internal error")
)

// WarningKind classifies a non-fatal anomaly
type WarningKind uint8

const (
	ZeroCells          WarningKind = iota // a selection or writer produced nothing
	NoTetrahedra                          // decomposition produced no tetrahedra
	TrivialTetrahedron                    // decomposition fell back to the 4 input points
)

func (k WarningKind) String() string {
	switch k {
	case ZeroCells:
		return "zero-cells"
	case NoTetrahedra:
		return "no-tetrahedra"
	case TrivialTetrahedron:
		return "trivial-tetrahedron"
	}
	return fmt.Sprintf("WarningKind(%d)", k)
}

// Warning is a degenerate-input anomaly that does not stop a conversion
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return w.Kind.String() + ": " + w.Message
}

// Warnings accumulates anomalies in the order they were found
type Warnings []Warning

// Addf records a warning of the given kind
func (ws *Warnings) Addf(kind WarningKind, format string, args ...interface{}) {
	*ws = append(*ws, Warning{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Count returns the number of warnings of the given kind
func (ws Warnings) Count(kind WarningKind) (n int) {
	for _, w := range ws {
		if w.Kind == kind {
			n++
		}
	}
	return
}

func (ws Warnings) String() string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}
