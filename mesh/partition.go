package mesh

import (
	"fmt"
	"math"

	"github.com/notargets/qdata/element"
)

// Strategy defines how elements are grouped into partitions
type Strategy int

const (
	BlockPartition Strategy = iota // Consecutive elements
	RoundRobin                     // Distribute cyclically
)

func (s Strategy) String() string {
	switch s {
	case BlockPartition:
		return "block"
	case RoundRobin:
		return "roundrobin"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy maps "block" / "roundrobin" to a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "block":
		return BlockPartition, nil
	case "roundrobin", "round-robin":
		return RoundRobin, nil
	}
	return 0, fmt.Errorf("mesh: unknown partition strategy %q", name)
}

// Builder splits a global mesh into per-process partitions
type Builder struct {
	NumPartitions int
	Strategy      Strategy
}

// Decomposition records which partition owns each global element
type Decomposition struct {
	Global   Partition
	EToP     []int   // Length K: element k belongs to partition EToP[k]
	Elements [][]int // [partition] -> global element indices, ascending
	KpartMax int     // max(len(Elements[p]))
}

// Build assigns every element of m to a partition
func (b Builder) Build(m Partition) (*Decomposition, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}
	np := b.NumPartitions
	if np < 1 {
		np = 1
	}
	K := m.NumElements()
	if np > K {
		return nil, fmt.Errorf("mesh: %d partitions requested for %d elements", np, K)
	}

	eToP := make([]int, K)
	switch b.Strategy {
	case RoundRobin:
		for i := 0; i < K; i++ {
			eToP[i] = i % np
		}
	default:
		// i*np/K keeps every block non-empty when np <= K
		for i := 0; i < K; i++ {
			eToP[i] = i * np / K
		}
	}

	d := &Decomposition{
		Global:   m,
		EToP:     eToP,
		Elements: make([][]int, np),
	}
	for elem, part := range eToP {
		d.Elements[part] = append(d.Elements[part], elem)
	}
	for _, elems := range d.Elements {
		if len(elems) > d.KpartMax {
			d.KpartMax = len(elems)
		}
	}
	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("invalid decomposition: %w", err)
	}
	return d, nil
}

// NumPartitions returns the number of partitions in the decomposition
func (d *Decomposition) NumPartitions() int {
	return len(d.Elements)
}

// GetPartition returns the partition containing global element k, -1 if none
func (d *Decomposition) GetPartition(elementID int) int {
	if elementID < 0 || elementID >= len(d.EToP) {
		return -1
	}
	return d.EToP[elementID]
}

// Local returns the partition owned by rank
func (d *Decomposition) Local(rank int) (*Simple, error) {
	if rank < 0 || rank >= len(d.Elements) {
		return nil, fmt.Errorf("mesh: rank %d outside [0,%d)", rank, len(d.Elements))
	}
	elems := d.Elements[rank]
	s := &Simple{
		Geometries: make([]element.GeometryType, len(elems)),
		GlobalIDs:  append([]int(nil), elems...),
	}
	for i, k := range elems {
		s.Geometries[i] = d.Global.Geometry(k)
	}
	return s, nil
}

// Stats computes load balance metrics
func (d *Decomposition) Stats() Stats {
	st := Stats{
		NumPartitions: len(d.Elements),
		MinElements:   math.MaxInt32,
		AvgElements:   float64(len(d.EToP)) / float64(len(d.Elements)),
	}
	for _, elems := range d.Elements {
		st.MinElements = min(st.MinElements, len(elems))
		st.MaxElements = max(st.MaxElements, len(elems))
	}
	st.Imbalance = float64(st.MaxElements) / st.AvgElements
	return st
}

// Stats summarises element counts across partitions
type Stats struct {
	NumPartitions int
	MinElements   int
	MaxElements   int
	AvgElements   float64
	Imbalance     float64 // MaxElements / AvgElements
}

func (d *Decomposition) validate() error {
	total := 0
	for p, elems := range d.Elements {
		if len(elems) == 0 {
			return fmt.Errorf("partition %d is empty", p)
		}
		if len(elems) > d.KpartMax {
			return fmt.Errorf("partition %d: %d elements > KpartMax %d", p, len(elems), d.KpartMax)
		}
		total += len(elems)
	}
	if total != len(d.EToP) {
		return fmt.Errorf("partitions hold %d elements, mesh has %d", total, len(d.EToP))
	}
	return nil
}
