package vismesh

import (
	"gonum.org/v1/gonum/spatial/r3"
	"strconv"
	"strings"
)

// DefaultPrecision is the number of decimal digits that make two coordinates
// the same point
const DefaultPrecision = 8

// PointRegistry deduplicates coordinates into stable, first-seen indices
type PointRegistry struct {
	precision int
	index     map[string]int
	points    []r3.Vec
}

// NewPointRegistry creates an empty registry keyed at the given precision.
// Zero or negative precision selects DefaultPrecision.
func NewPointRegistry(precision int) *PointRegistry {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return &PointRegistry{
		precision: precision,
		index:     make(map[string]int),
	}
}

// GetOrInsert returns the index of the point whose canonical key matches p,
// appending p when the key has not been seen
func (pr *PointRegistry) GetOrInsert(p r3.Vec) int {
	key := PointKey(p, pr.precision)
	if idx, ok := pr.index[key]; ok {
		return idx
	}
	idx := len(pr.points)
	pr.index[key] = idx
	pr.points = append(pr.points, p)
	return idx
}

// Points returns the registered points in insertion order
func (pr *PointRegistry) Points() []r3.Vec {
	return pr.points
}

// Len returns the number of distinct points
func (pr *PointRegistry) Len() int {
	return len(pr.points)
}

// Precision returns the number of decimal digits used for keys
func (pr *PointRegistry) Precision() int {
	return pr.precision
}

// PointKey formats p as "(x,y,z)" with a fixed number of decimals
func PointKey(p r3.Vec, precision int) string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(formatCoord(p.X, precision))
	sb.WriteByte(',')
	sb.WriteString(formatCoord(p.Y, precision))
	sb.WriteByte(',')
	sb.WriteString(formatCoord(p.Z, precision))
	sb.WriteByte(')')
	return sb.String()
}

func formatCoord(v float64, precision int) string {
	s := strconv.FormatFloat(v, 'f', precision, 64)
	// -0.000 and 0.000 are one key
	if strings.HasPrefix(s, "-") && strings.Trim(s[1:], "0.") == "" {
		return s[1:]
	}
	return s
}
