package mesh

import (
	"fmt"

	"github.com/notargets/DGMesh/element"
	"github.com/notargets/DGMesh/utils"
)

// StructQuadSurf is an ni x nj structured quadrilateral surface with explicit
// node positions. Connectivity follows from the lattice.
type StructQuadSurf struct {
	quads
	points []utils.Point
}

// NewStructQuadSurf returns an ni x nj surface with every node at the origin
func NewStructQuadSurf(ni, nj int) *StructQuadSurf {
	s := &StructQuadSurf{}
	s.self = s
	s.SetDim(ni, nj)
	return s
}

// SetDim reallocates the surface to ni x nj nodes at the origin
func (s *StructQuadSurf) SetDim(ni, nj int) {
	if ni < 1 || nj < 1 {
		panic(fmt.Sprintf("StructQuadSurf: invalid dimensions %dx%d", ni, nj))
	}
	s.lattice2 = lattice2{ni: ni, nj: nj}
	s.points = make([]utils.Point, ni*nj)
	s.replaced()
}

func (s *StructQuadSurf) Kind() Kind      { return StructQuadSurfKind }
func (s *StructQuadSurf) IsRegular() bool { return false }

func (s *StructQuadSurf) Point(n element.NodeIndex) utils.Point { return s.points[n] }

// SetPoint moves node n
func (s *StructQuadSurf) SetPoint(n element.NodeIndex, p utils.Point) {
	s.points[n] = p
	s.ClearSynchronization()
}

// Transform maps every node through t
func (s *StructQuadSurf) Transform(t utils.Transform) error {
	transformPoints(s.points, t)
	s.transformDerived(t)
	return nil
}

var _ Structured = (*StructQuadSurf)(nil)
