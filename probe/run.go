package probe

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/notargets/DGMesh/element"
	"github.com/notargets/DGMesh/mesh"
	"github.com/notargets/DGMesh/partitions"
	"github.com/notargets/DGMesh/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

var Log = logrus.New()

// Op enumerates the facade queries a probe can run
type Op uint8

const (
	LocateNode   Op = iota // Node within epsilon of the point
	LocateElem             // Element holding the point, with local coordinates
	LocateElems            // Elements whose box overlaps a cube of half width Radius
	ClosestNode            // Nearest node within MaxDist
	ClosestNodes           // Every node within Radius
	ClosestElem            // Nearest element within MaxDist
	ClosestElems           // Every element tied for nearest
)

var opNames = [...]string{
	LocateNode:   "locate_node",
	LocateElem:   "locate_elem",
	LocateElems:  "locate_elems",
	ClosestNode:  "closest_node",
	ClosestNodes: "closest_nodes",
	ClosestElem:  "closest_elem",
	ClosestElems: "closest_elems",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// ParseOp matches an operation name case insensitively
func ParseOp(name string) (Op, error) {
	for o, n := range opNames {
		if strings.EqualFold(n, name) {
			return Op(o), nil
		}
	}
	return 0, fmt.Errorf("unknown query op %q", name)
}

// Sync returns the derived tables the operation reads
func (o Op) Sync() mesh.SyncFlag {
	switch o {
	case LocateNode, ClosestNode, ClosestNodes:
		return mesh.NodeLocate
	default:
		return mesh.ElemLocate
	}
}

// Result is the outcome of one query at one point
type Result struct {
	Point   [3]float64 `yaml:"point"`
	Found   bool       `yaml:"found"`
	Index   int        `yaml:"index"` // Node or element, -1 on a miss
	Indices []int      `yaml:"indices,omitempty"`
	Coords  []float64  `yaml:"coords,omitempty"`
	Closest [3]float64 `yaml:"closest"`
	Dist    float64    `yaml:"dist"`
}

// DistStats summarizes the distances of the hits of a query
type DistStats struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Mean float64 `yaml:"mean"`
}

// Report collects the results of one query
type Report struct {
	Op         string     `yaml:"op"`
	Points     int        `yaml:"points"`
	Hits       int        `yaml:"hits"`
	Partitions int        `yaml:"partitions"`
	Dist       *DistStats `yaml:"dist,omitempty"`
	Results    []Result   `yaml:"results"`
}

// Run synchronizes m once for every query in cfg, then evaluates each query
// over its points with the points partitioned across concurrent workers
func Run(ctx context.Context, m mesh.VMesh, cfg *Config) ([]Report, error) {
	strategy, err := partitions.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	ops := make([]Op, len(cfg.Queries))
	var flags mesh.SyncFlag
	for i, q := range cfg.Queries {
		if ops[i], err = ParseOp(q.Op); err != nil {
			return nil, err
		}
		flags |= ops[i].Sync()
	}

	start := time.Now()
	m.Synchronize(flags)
	Log.WithFields(logrus.Fields{
		"mesh":  m.Kind().String(),
		"nodes": m.NumNodes(),
		"elems": m.NumElems(),
		"flags": flags.String(),
		"took":  time.Since(start),
	}).Info("synchronized mesh")

	reports := make([]Report, len(cfg.Queries))
	for i, q := range cfg.Queries {
		pts, err := queryPoints(m, q)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		pb := &partitions.PartitionBuilder{
			NumItems:            len(pts),
			Points:              pts,
			TargetPartitionSize: cfg.PartitionSize,
			Strategy:            strategy,
		}
		layout, err := pb.BuildPartitions()
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}

		start = time.Now()
		results, err := evaluate(ctx, m, ops[i], q, pts, layout, cfg.Workers)
		if err != nil {
			return nil, fmt.Errorf("query %d (%s): %w", i, ops[i], err)
		}
		reports[i] = summarize(ops[i], results, layout)

		Log.WithFields(logrus.Fields{
			"op":         ops[i].String(),
			"points":     len(pts),
			"hits":       reports[i].Hits,
			"partitions": layout.NumPartitions,
			"imbalance":  layout.PartitionStatistics().Imbalance,
			"took":       time.Since(start),
		}).Info("ran query")
	}
	return reports, nil
}

// queryPoints returns the listed points followed by the random ones, drawn
// uniformly in the mesh bounding box
func queryPoints(m mesh.VMesh, q QueryConfig) ([]utils.Point, error) {
	pts, err := toPoints(q.Points)
	if err != nil {
		return nil, err
	}
	if q.Random <= 0 {
		return pts, nil
	}
	box := m.BoundingBox()
	if !box.Valid() {
		Log.WithField("op", q.Op).Warn("mesh is empty, skipping random points")
		return pts, nil
	}
	rng := rand.New(rand.NewSource(q.Seed))
	ext := box.Diagonal()
	for i := 0; i < q.Random; i++ {
		pts = append(pts, utils.NewPoint(
			box.Min.X+rng.Float64()*ext.X,
			box.Min.Y+rng.Float64()*ext.Y,
			box.Min.Z+rng.Float64()*ext.Z))
	}
	return pts, nil
}

// evaluate runs op at every point. Each partition is walked in order by one
// worker, which passes its previous hit as the hint of the next lookup.
func evaluate(ctx context.Context, m mesh.VMesh, op Op, q QueryConfig, pts []utils.Point,
	layout *partitions.PartitionLayout, workers int) ([]Result, error) {
	results := make([]Result, len(pts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, part := range layout.Partitions {
		g.Go(func() error {
			hintN, hintE := element.NoNode, element.NoElem
			for _, it := range part.Items {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[it] = query(m, op, q, pts[it], &hintN, &hintE)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func vec(p utils.Point) [3]float64 { return [3]float64{p.X, p.Y, p.Z} }

func ints[T ~int](xs []T) []int {
	out := make([]int, len(xs))
	for i, x := range xs {
		out[i] = int(x)
	}
	return out
}

func query(m mesh.VMesh, op Op, q QueryConfig, p utils.Point, hintN *element.NodeIndex, hintE *element.ElemIndex) Result {
	r := Result{Point: vec(p), Index: -1}
	switch op {
	case LocateNode:
		if n, ok := m.LocateNode(p, *hintN); ok {
			*hintN = n
			np := m.Point(n)
			r.Found, r.Index, r.Closest, r.Dist = true, int(n), vec(np), utils.Dist(p, np)
		}
	case LocateElem:
		if e, coords, ok := m.LocateElemCoords(p, *hintE); ok {
			*hintE = e
			r.Found, r.Index, r.Coords, r.Closest = true, int(e), coords, vec(p)
		}
	case LocateElems:
		h := utils.NewPoint(q.Radius, q.Radius, q.Radius)
		elems := m.LocateElems(utils.NewBBox(r3.Sub(p, h), r3.Add(p, h)))
		r.Found, r.Indices = len(elems) > 0, ints(elems)
	case ClosestNode:
		if c, ok := m.FindClosestNode(p, q.MaxDist); ok {
			r.Found, r.Index, r.Closest, r.Dist = true, int(c.Node), vec(c.Point), c.Dist
		}
	case ClosestNodes:
		nodes := m.FindClosestNodes(p, q.Radius)
		r.Found, r.Indices = len(nodes) > 0, ints(nodes)
	case ClosestElem:
		if c, ok := m.FindClosestElem(p, q.MaxDist); ok {
			r.Found, r.Index, r.Coords, r.Closest, r.Dist = true, int(c.Elem), c.Coords, vec(c.Point), c.Dist
		}
	case ClosestElems:
		if elems, cp, d, ok := m.FindClosestElems(p); ok {
			r.Found, r.Index, r.Indices, r.Closest, r.Dist = true, int(elems[0]), ints(elems), vec(cp), d
		}
	}
	return r
}

func summarize(op Op, results []Result, layout *partitions.PartitionLayout) Report {
	rep := Report{
		Op:         op.String(),
		Points:     len(results),
		Partitions: layout.NumPartitions,
		Results:    results,
	}
	var dists []float64
	for _, r := range results {
		if !r.Found {
			continue
		}
		rep.Hits++
		switch op {
		case LocateNode, ClosestNode, ClosestElem, ClosestElems:
			dists = append(dists, r.Dist)
		}
	}
	if len(dists) > 0 {
		rep.Dist = &DistStats{
			Min:  floats.Min(dists),
			Max:  floats.Max(dists),
			Mean: floats.Sum(dists) / float64(len(dists)),
		}
	}
	return rep
}
