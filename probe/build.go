package probe

import (
	"fmt"

	"github.com/notargets/DGMesh/element"
	"github.com/notargets/DGMesh/mesh"
	"github.com/notargets/DGMesh/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

// BuildMesh constructs the mesh a description names and applies its
// transform
func BuildMesh(cfg MeshConfig) (mesh.VMesh, error) {
	kind, err := mesh.ParseKind(cfg.Kind)
	if err != nil {
		return nil, err
	}
	pts, err := toPoints(cfg.Points)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	var m mesh.VMesh
	switch kind {
	case mesh.PointCloudKind:
		m = mesh.NewPointCloud(pts...)
	case mesh.CurveKind:
		m, err = buildCurve(pts, cfg.Elems)
	case mesh.ImageKind:
		m, err = buildImage(cfg)
	case mesh.StructQuadSurfKind:
		m, err = buildStructQuadSurf(cfg, pts)
	case mesh.LatVolKind:
		m, err = buildLatVol(cfg)
	default:
		err = fmt.Errorf("%w: %s", mesh.ErrUnknownMeshKind, kind)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Transform != nil {
		t, err := cfg.Transform.transform()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		if err := m.Transform(t); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func buildCurve(pts []utils.Point, elems [][]int) (mesh.VMesh, error) {
	if len(elems) == 0 {
		return mesh.NewPolyline(pts...), nil
	}
	c := mesh.NewCurve()
	c.Reserve(len(pts), len(elems))
	for _, p := range pts {
		c.AddNode(p)
	}
	for i, e := range elems {
		nodes := make([]element.NodeIndex, len(e))
		for j, n := range e {
			nodes[j] = element.NodeIndex(n)
		}
		if _, err := c.AddElem(nodes...); err != nil {
			return nil, fmt.Errorf("Curve: element %d: %w", i, err)
		}
	}
	return c, nil
}

// dims checks that d holds n positive node counts
func dims(kind mesh.Kind, d []int, n int) error {
	if len(d) != n {
		return fmt.Errorf("%s: dims %v needs %d values", kind, d, n)
	}
	for _, v := range d {
		if v < 1 {
			return fmt.Errorf("%s: dims %v must be positive", kind, d)
		}
	}
	return nil
}

// minMax returns the corners of a regular mesh, ok false when none are given
func minMax(kind mesh.Kind, cfg MeshConfig) (lo, hi utils.Point, ok bool, err error) {
	if cfg.Min == nil && cfg.Max == nil {
		return
	}
	if lo, err = toPoint(cfg.Min); err != nil {
		return lo, hi, false, fmt.Errorf("%s: min: %w", kind, err)
	}
	if hi, err = toPoint(cfg.Max); err != nil {
		return lo, hi, false, fmt.Errorf("%s: max: %w", kind, err)
	}
	return lo, hi, true, nil
}

func buildImage(cfg MeshConfig) (mesh.VMesh, error) {
	if err := dims(mesh.ImageKind, cfg.Dims, 2); err != nil {
		return nil, err
	}
	im := mesh.NewImage(cfg.Dims[0], cfg.Dims[1])
	lo, hi, ok, err := minMax(mesh.ImageKind, cfg)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := im.SetMinMax(lo, hi); err != nil {
			return nil, err
		}
	}
	return im, nil
}

func buildLatVol(cfg MeshConfig) (mesh.VMesh, error) {
	if err := dims(mesh.LatVolKind, cfg.Dims, 3); err != nil {
		return nil, err
	}
	lv := mesh.NewLatVol(cfg.Dims[0], cfg.Dims[1], cfg.Dims[2])
	lo, hi, ok, err := minMax(mesh.LatVolKind, cfg)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := lv.SetMinMax(lo, hi); err != nil {
			return nil, err
		}
	}
	return lv, nil
}

// buildStructQuadSurf takes the node positions row major, i fastest
func buildStructQuadSurf(cfg MeshConfig, pts []utils.Point) (mesh.VMesh, error) {
	if err := dims(mesh.StructQuadSurfKind, cfg.Dims, 2); err != nil {
		return nil, err
	}
	s := mesh.NewStructQuadSurf(cfg.Dims[0], cfg.Dims[1])
	if len(pts) != s.NumNodes() {
		return nil, fmt.Errorf("%s: %d points for %d nodes",
			mesh.StructQuadSurfKind, len(pts), s.NumNodes())
	}
	for n, p := range pts {
		s.SetPoint(element.NodeIndex(n), p)
	}
	return s, nil
}

func (tc *TransformConfig) transform() (utils.Transform, error) {
	t := utils.Identity()
	if tc.Scale != nil {
		s, err := toPoint(tc.Scale)
		if err != nil {
			return t, fmt.Errorf("scale: %w", err)
		}
		t.Scale(s)
	}
	if tc.Angle != 0 {
		axis, err := toPoint(tc.Axis)
		if err != nil {
			return t, fmt.Errorf("axis: %w", err)
		}
		if r3.Norm(axis) == 0 {
			return t, fmt.Errorf("rotation axis is zero")
		}
		t.Rotate(tc.Angle, axis)
	}
	if tc.Translate != nil {
		d, err := toPoint(tc.Translate)
		if err != nil {
			return t, fmt.Errorf("translate: %w", err)
		}
		t.Translate(d)
	}
	return t, nil
}
