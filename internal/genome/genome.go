// Package genome holds the evolvable encoding of a gotchi: one gene sequence
// per travel direction, consumed by the embryology and behavior decoders.
package genome

import (
	"fmt"
	"math/rand/v2"
)

// Direction is a travel direction; Rest doubles as the growth gene.
type Direction uint8

const (
	Rest Direction = iota
	Forward
	Left
	Right
	Reverse
)

// DirectionCount is the number of gene sequences in a genome.
const DirectionCount = 5

var directionNames = [DirectionCount]string{"rest", "forward", "left", "right", "reverse"}

func (d Direction) String() string {
	if d < DirectionCount {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", d)
}

// MaxMutationDelta bounds how far a single mutation moves a gene value.
const MaxMutationDelta = 32

// Data is the storable form of a genome.
type Data struct {
	Genes [DirectionCount][]uint8 `json:"genes"`
}

// Genome is immutable once built. Mutation produces a new value.
type Genome struct {
	data Data
}

// Fresh returns a genome with random sequences of the given length.
func Fresh(rng *rand.Rand, length int) *Genome {
	g := &Genome{}
	for d := range g.data.Genes {
		seq := make([]uint8, length)
		for i := range seq {
			seq[i] = uint8(rng.IntN(256))
		}
		g.data.Genes[d] = seq
	}
	return g
}

// FromData copies d into a new genome.
func FromData(d Data) *Genome {
	return &Genome{data: cloneData(d)}
}

// Data returns a deep copy for storage.
func (g *Genome) Data() Data {
	return cloneData(g.data)
}

// Len returns the length of the sequence for d.
func (g *Genome) Len(d Direction) int {
	return len(g.data.Genes[d])
}

// Reader starts reading the sequence for d from the beginning.
func (g *Genome) Reader(d Direction) *GeneReader {
	return &GeneReader{seq: g.data.Genes[d]}
}

// WithMutatedBehavior returns a copy with n gene positions, chosen across all
// direction sequences, shifted by a non-zero delta clamped to the byte range.
// The receiver is left untouched.
func (g *Genome) WithMutatedBehavior(rng *rand.Rand, n int) *Genome {
	out := &Genome{data: cloneData(g.data)}
	total := 0
	for _, seq := range out.data.Genes {
		total += len(seq)
	}
	if total == 0 {
		return out
	}
	for m := 0; m < n; m++ {
		pos := rng.IntN(total)
		d := 0
		for pos >= len(out.data.Genes[d]) {
			pos -= len(out.data.Genes[d])
			d++
		}
		delta := rng.IntN(MaxMutationDelta) + 1
		if rng.IntN(2) == 0 {
			delta = -delta
		}
		v := int(out.data.Genes[d][pos]) + delta
		out.data.Genes[d][pos] = uint8(max(0, min(255, v)))
	}
	return out
}

// Equal reports whether both genomes carry identical sequences.
func (g *Genome) Equal(o *Genome) bool {
	for d := range g.data.Genes {
		a, b := g.data.Genes[d], o.data.Genes[d]
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

func (g *Genome) String() string {
	return fmt.Sprintf("Genome(rest=%d forward=%d left=%d right=%d reverse=%d)",
		g.Len(Rest), g.Len(Forward), g.Len(Left), g.Len(Right), g.Len(Reverse))
}

func cloneData(d Data) Data {
	var out Data
	for i, seq := range d.Genes {
		if seq != nil {
			out.Genes[i] = append([]uint8(nil), seq...)
		}
	}
	return out
}
