package partitions

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Partition is a group of query items evaluated together by one worker
type Partition struct {
	// Unique identifier for this partition
	ID int

	// Item membership, in evaluation order
	Items []int // Global item indices in this partition
}

// NumItems returns the number of items in the partition
func (p *Partition) NumItems() int { return len(p.Items) }

// PartitionLayout is the complete decomposition of a batch
type PartitionLayout struct {
	// All partitions in the batch
	Partitions []Partition

	// Global sizing information
	MaxItems      int // max(NumItems) across all partitions
	TotalItems    int // Sum of all items across partitions
	NumPartitions int // Total number of partitions

	// Item to partition mapping
	IToP []int // Length TotalItems: item i belongs to partition IToP[i]
}

// GetPartition returns the partition containing item i, -1 when out of range
func (pl *PartitionLayout) GetPartition(item int) int {
	if item < 0 || item >= len(pl.IToP) {
		return -1
	}
	return pl.IToP[item]
}

// ValidateLayout checks partition consistency
func (pl *PartitionLayout) ValidateLayout() error {
	if len(pl.Partitions) != pl.NumPartitions {
		return fmt.Errorf("%d partitions != NumPartitions %d",
			len(pl.Partitions), pl.NumPartitions)
	}
	if len(pl.IToP) != pl.TotalItems {
		return fmt.Errorf("IToP length %d != TotalItems %d", len(pl.IToP), pl.TotalItems)
	}
	actualMax, total := 0, 0
	seen := make([]bool, pl.TotalItems)
	for id, p := range pl.Partitions {
		if p.ID != id {
			return fmt.Errorf("partition at %d has ID %d", id, p.ID)
		}
		actualMax = max(actualMax, len(p.Items))
		total += len(p.Items)
		for _, it := range p.Items {
			if it < 0 || it >= pl.TotalItems {
				return fmt.Errorf("partition %d: item %d out of range", id, it)
			}
			if seen[it] {
				return fmt.Errorf("partition %d: item %d assigned twice", id, it)
			}
			if pl.IToP[it] != id {
				return fmt.Errorf("partition %d: item %d mapped to partition %d",
					id, it, pl.IToP[it])
			}
			seen[it] = true
		}
	}
	if total != pl.TotalItems {
		return fmt.Errorf("partitions hold %d items, want %d", total, pl.TotalItems)
	}
	if actualMax != pl.MaxItems {
		return fmt.Errorf("computed MaxItems %d != stored MaxItems %d",
			actualMax, pl.MaxItems)
	}
	return nil
}

// PartitionStats summarizes the load balance of a layout
type PartitionStats struct {
	NumPartitions int
	MinItems      int
	MaxItems      int
	AvgItems      float64
	Imbalance     float64 // MaxItems / AvgItems
}

// PartitionStatistics computes load balance metrics
func (pl *PartitionLayout) PartitionStatistics() PartitionStats {
	stats := PartitionStats{NumPartitions: pl.NumPartitions}
	if len(pl.Partitions) == 0 {
		return stats
	}
	sizes := make([]float64, len(pl.Partitions))
	for i, p := range pl.Partitions {
		sizes[i] = float64(len(p.Items))
	}
	stats.MinItems = int(floats.Min(sizes))
	stats.MaxItems = int(floats.Max(sizes))
	stats.AvgItems = floats.Sum(sizes) / float64(len(sizes))
	if stats.AvgItems > 0 {
		stats.Imbalance = float64(stats.MaxItems) / stats.AvgItems
	}
	return stats
}
