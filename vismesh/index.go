package vismesh

// TagKind names the variant carried by an IndexTag
type TagKind uint8

const (
	FiniteVolumeTag TagKind = iota
	ChomboVolumeTag
	ChomboSurfaceTag
	MovingBoundaryVolumeTag
	MovingBoundarySurfaceTag
)

func (k TagKind) String() string {
	return [...]string{
		"FiniteVolumeIndex",
		"ChomboVolumeIndex",
		"ChomboSurfaceIndex",
		"MovingBoundaryVolumeIndex",
		"MovingBoundarySurfaceIndex",
	}[k]
}

// IndexTag is the single addressing record attached to an emitted cell.
// The set of implementations is closed to this package.
type IndexTag interface {
	Kind() TagKind
	indexTag()
}

// FiniteVolumeIndex addresses a cell in the flat finite volume scheme
type FiniteVolumeIndex struct {
	GlobalIndex int `json:"globalIndex"`
	RegionIndex int `json:"regionIndex"`
}

// ChomboVolumeIndex addresses a volume cell in an AMR box hierarchy
type ChomboVolumeIndex struct {
	Level     int     `json:"level"`
	BoxNumber int     `json:"boxNumber"`
	BoxIndex  int     `json:"boxIndex"`
	Fraction  float64 `json:"fraction"`
}

// ChomboSurfaceIndex addresses an embedded boundary surface element
type ChomboSurfaceIndex struct {
	Index int `json:"index"`
}

// MovingBoundaryVolumeIndex addresses a volume element of a moving boundary solution
type MovingBoundaryVolumeIndex struct {
	Index int `json:"index"`
}

// MovingBoundarySurfaceIndex addresses a front element of a moving boundary solution
type MovingBoundarySurfaceIndex struct {
	Index int `json:"index"`
}

func (FiniteVolumeIndex) Kind() TagKind          { return FiniteVolumeTag }
func (ChomboVolumeIndex) Kind() TagKind          { return ChomboVolumeTag }
func (ChomboSurfaceIndex) Kind() TagKind         { return ChomboSurfaceTag }
func (MovingBoundaryVolumeIndex) Kind() TagKind  { return MovingBoundaryVolumeTag }
func (MovingBoundarySurfaceIndex) Kind() TagKind { return MovingBoundarySurfaceTag }

func (FiniteVolumeIndex) indexTag()          {}
func (ChomboVolumeIndex) indexTag()          {}
func (ChomboSurfaceIndex) indexTag()         {}
func (MovingBoundaryVolumeIndex) indexTag()  {}
func (MovingBoundarySurfaceIndex) indexTag() {}
