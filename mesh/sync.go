package mesh

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// SyncFlag selects derived tables built lazily by Synchronize
type SyncFlag uint32

const (
	NodeNeighbors SyncFlag = 1 << iota // Elements around each node
	ElemNeighbors                      // Elements sharing a DElem
	Edges                              // Edge table
	Faces                              // Face table
	NodeLocate                         // Node search grid
	ElemLocate                         // Element search grid
	Epsilon                            // Distance tolerance
	Normals                            // Node normals of surfaces
	BoundingBox                        // Axis aligned bounds

	FindClosestNode = NodeLocate
	FindClosestElem = ElemLocate
	Locate          = NodeLocate | ElemLocate
	AllSync         = NodeNeighbors | ElemNeighbors | Edges | Faces |
		NodeLocate | ElemLocate | Epsilon | Normals | BoundingBox
)

// buildOrder lists flags so every table comes after the ones it reads
var buildOrder = []SyncFlag{
	BoundingBox, Epsilon, NodeNeighbors, ElemNeighbors, Edges, Faces,
	NodeLocate, ElemLocate, Normals,
}

var flagNames = map[SyncFlag]string{
	NodeNeighbors: "NodeNeighbors",
	ElemNeighbors: "ElemNeighbors",
	Edges:         "Edges",
	Faces:         "Faces",
	NodeLocate:    "NodeLocate",
	ElemLocate:    "ElemLocate",
	Epsilon:       "Epsilon",
	Normals:       "Normals",
	BoundingBox:   "BoundingBox",
}

func (f SyncFlag) String() string {
	if f == 0 {
		return "None"
	}
	var names []string
	for _, b := range buildOrder {
		if f&b != 0 {
			names = append(names, flagNames[b])
		}
	}
	return strings.Join(names, "|")
}

// withDependencies adds the tables the requested ones are built from
func (f SyncFlag) withDependencies() SyncFlag {
	if f&(Epsilon|Locate) != 0 {
		f |= BoundingBox
	}
	if f&Locate != 0 {
		f |= Epsilon
	}
	if f&ElemNeighbors != 0 {
		f |= NodeNeighbors
	}
	return f
}

// withDependents adds the tables built from the given ones
func (f SyncFlag) withDependents() SyncFlag {
	if f&BoundingBox != 0 {
		f |= Epsilon
	}
	if f&Epsilon != 0 {
		f |= Locate
	}
	if f&NodeNeighbors != 0 {
		f |= ElemNeighbors
	}
	return f
}

// Log receives debug records of derived table builds
var Log = logrus.New()

// syncState tracks which derived tables are valid. Flags are read without the
// lock; tables are built and freed with it held.
type syncState struct {
	mu    sync.Mutex
	flags atomic.Uint32
	group singleflight.Group
}

func (s *syncState) has(f SyncFlag) bool {
	return SyncFlag(s.flags.Load())&f == f
}

// ensure builds every table of flags that is not yet valid, in dependency
// order. Concurrent callers asking for the same table share one build.
func (s *syncState) ensure(flags SyncFlag, build func(SyncFlag)) {
	flags = flags.withDependencies()
	for _, f := range buildOrder {
		if flags&f == 0 || s.has(f) {
			continue
		}
		// Builds cannot fail, so the shared result carries nothing
		s.group.Do(flagNames[f], func() (any, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.has(f) {
				return nil, nil
			}
			build(f)
			s.flags.Or(uint32(f))
			return nil, nil
		})
	}
}

// drop marks flags invalid and lets free release their tables
func (s *syncState) drop(flags SyncFlag, free func(SyncFlag)) {
	flags = flags.withDependents()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range buildOrder {
		if flags&f != 0 {
			free(f)
		}
	}
	s.flags.And(^uint32(flags))
}
