package mesh

// LatVol is a regular ni x nj x nk hexahedral lattice placed in space by an
// affine map. Elements are cells and DElems are faces.
type LatVol struct {
	hexes
	regular
}

// NewLatVol returns an ni x nj x nk volume with its nodes on the integer
// coordinates
func NewLatVol(ni, nj, nk int) *LatVol {
	lv := &LatVol{}
	lv.self = lv
	lv.regular.init(&lv.base, 3)
	lv.SetDim(ni, nj, nk)
	return lv
}

// SetDim resets the volume to ni x nj x nk nodes on the integer coordinates
func (lv *LatVol) SetDim(ni, nj, nk int) {
	lv.setDims([3]int{ni, nj, nk})
	lv.lattice3 = lattice3{ni: ni, nj: nj, nk: nk}
}

func (lv *LatVol) Kind() Kind { return LatVolKind }

var _ Structured = (*LatVol)(nil)
