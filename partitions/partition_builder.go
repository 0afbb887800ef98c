package partitions

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/notargets/DGMesh/utils"
)

// PartitionBuilder splits a batch of query items into partitions
type PartitionBuilder struct {
	NumItems int

	// Item positions, needed by SpaceFillingCurve only
	Points []utils.Point

	// Partitioning parameters
	TargetPartitionSize int // Desired items per partition
	Strategy            PartitionStrategy
}

// PartitionStrategy defines how items are grouped
type PartitionStrategy uint8

const (
	BlockPartition    PartitionStrategy = iota // Consecutive items
	RoundRobin                                 // Distribute cyclically
	SpaceFillingCurve                          // Morton curve ordering of the item positions
)

var strategyNames = [...]string{
	BlockPartition:    "block",
	RoundRobin:        "roundrobin",
	SpaceFillingCurve: "morton",
}

func (s PartitionStrategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("PartitionStrategy(%d)", uint8(s))
}

// ParseStrategy matches a strategy name case insensitively
func ParseStrategy(name string) (PartitionStrategy, error) {
	for s, n := range strategyNames {
		if strings.EqualFold(n, name) {
			return PartitionStrategy(s), nil
		}
	}
	return 0, fmt.Errorf("unknown partition strategy %q", name)
}

// BuildPartitions creates a partition layout for the batch
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.NumItems < 0 {
		return nil, fmt.Errorf("negative item count %d", pb.NumItems)
	}
	if pb.TargetPartitionSize < 1 {
		return nil, fmt.Errorf("target partition size %d must be positive", pb.TargetPartitionSize)
	}
	if pb.Strategy == SpaceFillingCurve && len(pb.Points) != pb.NumItems {
		return nil, fmt.Errorf("%s strategy needs %d points, got %d",
			pb.Strategy, pb.NumItems, len(pb.Points))
	}

	numPartitions := pb.calculateNumPartitions()
	order, err := pb.itemOrder()
	if err != nil {
		return nil, err
	}
	iToP := pb.partitionItems(order, numPartitions)
	partitions := pb.createPartitions(order, iToP, numPartitions)

	layout := &PartitionLayout{
		Partitions:    partitions,
		MaxItems:      calculateMaxItems(partitions),
		TotalItems:    pb.NumItems,
		NumPartitions: numPartitions,
		IToP:          iToP,
	}
	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}
	return layout, nil
}

// calculateNumPartitions determines the partition count, at least one
func (pb *PartitionBuilder) calculateNumPartitions() int {
	numPartitions := int(math.Ceil(float64(pb.NumItems) / float64(pb.TargetPartitionSize)))
	return max(numPartitions, 1)
}

// itemOrder returns the items in the order partitions are filled
func (pb *PartitionBuilder) itemOrder() ([]int, error) {
	order := make([]int, pb.NumItems)
	for i := range order {
		order[i] = i
	}
	switch pb.Strategy {
	case BlockPartition, RoundRobin:
	case SpaceFillingCurve:
		codes := mortonCodes(pb.Points)
		slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(codes[a], codes[b]) })
	default:
		return nil, fmt.Errorf("unsupported partition strategy %s", pb.Strategy)
	}
	return order, nil
}

// partitionItems assigns each item to a partition
func (pb *PartitionBuilder) partitionItems(order []int, numPartitions int) []int {
	iToP := make([]int, pb.NumItems)
	switch pb.Strategy {
	case RoundRobin:
		for pos, item := range order {
			iToP[item] = pos % numPartitions
		}
	default:
		// Block split of the ordering
		itemsPerPartition := max(int(math.Ceil(float64(pb.NumItems)/float64(numPartitions))), 1)
		for pos, item := range order {
			iToP[item] = min(pos/itemsPerPartition, numPartitions-1)
		}
	}
	return iToP
}

// createPartitions builds partition structures, keeping each partition's items
// in fill order
func (pb *PartitionBuilder) createPartitions(order, iToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)
	for i := range partitions {
		partitions[i] = Partition{ID: i, Items: make([]int, 0, pb.TargetPartitionSize)}
	}
	for _, item := range order {
		p := iToP[item]
		partitions[p].Items = append(partitions[p].Items, item)
	}
	return partitions
}

// calculateMaxItems finds the largest partition
func calculateMaxItems(partitions []Partition) int {
	m := 0
	for _, p := range partitions {
		m = max(m, len(p.Items))
	}
	return m
}

const mortonBits = 21

// mortonCodes quantizes pts over their bounding box and interleaves the bits
// of the three coordinates, so nearby points get nearby codes
func mortonCodes(pts []utils.Point) []uint64 {
	box := utils.NewBBox(pts...)
	ext := box.Diagonal()
	scale := float64(uint64(1)<<mortonBits - 1)
	codes := make([]uint64, len(pts))
	for i, p := range pts {
		var q [3]uint64
		for d := 0; d < 3; d++ {
			if e := utils.Component(ext, d); e > 0 {
				q[d] = uint64((utils.Component(p, d) - utils.Component(box.Min, d)) / e * scale)
			}
		}
		codes[i] = spread(q[0]) | spread(q[1])<<1 | spread(q[2])<<2
	}
	return codes
}

// spread inserts two zero bits between each of the low 21 bits of v
func spread(v uint64) uint64 {
	v &= 0x1fffff
	v = (v | v<<32) & 0x1f00000000ffff
	v = (v | v<<16) & 0x1f0000ff0000ff
	v = (v | v<<8) & 0x100f00f00f00f00f
	v = (v | v<<4) & 0x10c30c30c30c30c3
	v = (v | v<<2) & 0x1249249249249249
	return v
}
