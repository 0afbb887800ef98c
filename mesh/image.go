package mesh

// Image is a regular ni x nj quadrilateral lattice placed in space by an
// affine map. Node positions are computed, never stored.
type Image struct {
	quads
	regular
}

// NewImage returns an ni x nj image with its nodes on the integer coordinates
// of the z=0 plane
func NewImage(ni, nj int) *Image {
	im := &Image{}
	im.self = im
	im.regular.init(&im.base, 2)
	im.SetDim(ni, nj)
	return im
}

// SetDim resets the image to ni x nj nodes on the integer coordinates
func (im *Image) SetDim(ni, nj int) {
	im.setDims([3]int{ni, nj, 1})
	im.lattice2 = lattice2{ni: ni, nj: nj}
}

func (im *Image) Kind() Kind { return ImageKind }

var _ Structured = (*Image)(nil)
