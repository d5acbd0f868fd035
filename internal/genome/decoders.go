package genome

// Grower is the part of a body the embryology decoder drives.
type Grower interface {
	FaceCount() int
	// Unfold grows the face at faceIndex around one of its joints and
	// returns how many faces it created; zero means capacity is exhausted.
	Unfold(faceIndex, jointNumber int) int
}

// Actuator is the part of a body the behavior decoder drives.
type Actuator interface {
	// IntervalRange returns the actuated interval indices as [first, end).
	IntervalRange() (first, end int)
	SetIntervalHighLow(interval int, d Direction, high, low uint8)
}

// Embryology turns the Rest gene into a growth schedule.
type Embryology struct {
	body Grower
	gene *GeneReader
	done bool
}

// Embryology starts a growth decoder for body.
func (g *Genome) Embryology(body Grower) *Embryology {
	return &Embryology{body: body, gene: g.Reader(Rest)}
}

// Step performs one growth action and reports whether more may follow.
// Once it returns false it keeps returning false.
func (e *Embryology) Step() bool {
	if e.done {
		return false
	}
	faceCount := e.body.FaceCount()
	if e.gene.Exhausted() || faceCount == 0 {
		e.done = true
		return false
	}
	face := e.gene.Choice(faceCount)
	joint := e.gene.Choice(3)
	if e.body.Unfold(face, joint) == 0 {
		e.done = true
		return false
	}
	if e.gene.Exhausted() {
		e.done = true
	}
	return !e.done
}

// Behavior turns the direction genes into per-interval actuation.
type Behavior struct {
	body   Actuator
	genome *Genome
}

// Behavior starts a locomotion decoder for body.
func (g *Genome) Behavior(body Actuator) *Behavior {
	return &Behavior{body: body, genome: g}
}

// Apply sets a high and low value for every actuated interval in every
// travel direction. Rest is never actuated.
func (b *Behavior) Apply() {
	first, end := b.body.IntervalRange()
	for d := Forward; d < DirectionCount; d++ {
		gene := b.genome.Reader(d)
		for i := first; i < end; i++ {
			high := gene.Next()
			low := gene.Next()
			b.body.SetIntervalHighLow(i, d, high, low)
		}
	}
}
