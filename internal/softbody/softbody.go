// Package softbody is a small deterministic simulation kernel implementing
// fabric.Exports in process. It keeps joint positions rigid and moves a body
// across the ground by the actuation of its triggered intervals; it exists so
// that gotchis and evolution can run headless and reproducibly.
package softbody

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/geralddejong/galapagotchi/internal/fabric"
	"github.com/geralddejong/galapagotchi/internal/genome"
)

// Config tunes the kernel.
type Config struct {
	TriggerTicks int     // length of one interval cycle
	MuscleStates int     // number of muscle states an interval may reference
	StrideScale  float64 // ground displacement per unit of high-low per cycle
}

// DefaultConfig returns the tuning used by the host.
func DefaultConfig() Config {
	return Config{
		TriggerTicks: 20,
		MuscleStates: 32,
		StrideScale:  1.0 / 255 / 60,
	}
}

type joint struct {
	tag        int
	laterality int
	loc        r3.Vec
}

type interval struct {
	alpha, omega int
	muscle       int
	span         float64
	timer        int
	highLow      [genome.DirectionCount][2]uint8
}

type face struct {
	joints [3]int
}

type instance struct {
	joints        []joint
	intervals     []interval
	faces         []face
	age           int
	nextTag       int
	hangerRemoved bool
	direction     genome.Direction
	nextDirection genome.Direction
}

// Kernel holds every instance and the shared float buffer.
type Kernel struct {
	cfg    Config
	layout fabric.Layout

	jointCountMax    int
	intervalCountMax int
	faceCountMax     int

	memory    []float32
	instances []*instance
	current   int
}

var _ fabric.Exports = (*Kernel)(nil)

// New creates an uninitialised kernel; fabric.NewKernel calls Init.
func New(cfg Config) *Kernel {
	if cfg.TriggerTicks <= 0 {
		cfg.TriggerTicks = DefaultConfig().TriggerTicks
	}
	return &Kernel{cfg: cfg}
}

func (k *Kernel) Init(jointCountMax, intervalCountMax, faceCountMax, instanceMax int) int {
	k.jointCountMax = jointCountMax
	k.intervalCountMax = intervalCountMax
	k.faceCountMax = faceCountMax
	k.layout = fabric.NewLayout(faceCountMax)
	k.memory = make([]float32, k.layout.InstanceFloats()*instanceMax)
	k.instances = make([]*instance, instanceMax)
	for i := range k.instances {
		k.instances[i] = &instance{}
	}
	return k.layout.InstanceBytes
}

func (k *Kernel) Memory() []float32 {
	return k.memory
}

func (k *Kernel) SetInstance(index int) {
	if index < 0 || index >= len(k.instances) {
		panic(fmt.Sprintf("softbody: instance %d of %d", index, len(k.instances)))
	}
	k.current = index
}

func (k *Kernel) in() *instance {
	return k.instances[k.current]
}

func (k *Kernel) Reset() {
	k.instances[k.current] = &instance{}
	block := k.memory[k.layout.Float(k.current, 0):k.layout.Float(k.current+1, 0)]
	clear(block)
}

func (k *Kernel) Age() int {
	return k.in().age
}

func (k *Kernel) NextJointTag() int {
	in := k.in()
	in.nextTag++
	return in.nextTag
}

func (k *Kernel) CreateJoint(tag, laterality int, x, y, z float32) int {
	in := k.in()
	if len(in.joints) >= k.jointCountMax {
		return k.jointCountMax
	}
	in.joints = append(in.joints, joint{
		tag:        tag,
		laterality: laterality,
		loc:        r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)},
	})
	k.write()
	return len(in.joints) - 1
}

func (k *Kernel) JointCount() int           { return len(k.in().joints) }
func (k *Kernel) JointTag(j int) int        { return k.in().joints[j].tag }
func (k *Kernel) JointLaterality(j int) int { return k.in().joints[j].laterality }
func (k *Kernel) IntervalCount() int        { return len(k.in().intervals) }
func (k *Kernel) FaceCount() int            { return len(k.in().faces) }
func (k *Kernel) MuscleStateCount() int     { return k.cfg.MuscleStates }

func (k *Kernel) CurrentDirection() genome.Direction {
	return k.in().direction
}

func (k *Kernel) CreateInterval(muscle, alpha, omega int, span float32) int {
	in := k.in()
	if len(in.intervals) >= k.intervalCountMax {
		return k.intervalCountMax
	}
	s := float64(span)
	if s < 0 {
		s = r3.Norm(r3.Sub(in.joints[omega].loc, in.joints[alpha].loc))
	}
	in.intervals = append(in.intervals, interval{alpha: alpha, omega: omega, muscle: muscle, span: s})
	return len(in.intervals) - 1
}

func (k *Kernel) SetIntervalMuscle(i, muscle int) {
	k.in().intervals[i].muscle = muscle
}

func (k *Kernel) SetIntervalHighLow(i int, d genome.Direction, high, low uint8) {
	k.in().intervals[i].highLow[d] = [2]uint8{high, low}
}

func (k *Kernel) TriggerInterval(i int) {
	k.in().intervals[i].timer = k.cfg.TriggerTicks
}

// side is the laterality of an interval, or -1 when it spans both sides.
func (in *instance) side(iv interval) int {
	a, b := in.joints[iv.alpha].laterality, in.joints[iv.omega].laterality
	switch {
	case a == fabric.LateralityMiddle:
		return b
	case b == fabric.LateralityMiddle || a == b:
		return a
	default:
		return -1
	}
}

func mirror(laterality int) int {
	switch laterality {
	case fabric.LateralityLeft:
		return fabric.LateralityRight
	case fabric.LateralityRight:
		return fabric.LateralityLeft
	default:
		return laterality
	}
}

func (k *Kernel) FindOppositeIntervalIndex(i int) int {
	in := k.in()
	iv := in.intervals[i]
	side := in.side(iv)
	if side <= fabric.LateralityMiddle {
		return k.intervalCountMax
	}
	tags := sortedTags(in, iv.alpha, iv.omega)
	for j, other := range in.intervals {
		if j == i || in.side(other) != mirror(side) {
			continue
		}
		if sameTags(tags, sortedTags(in, other.alpha, other.omega)) {
			return j
		}
	}
	return k.intervalCountMax
}

func (k *Kernel) CreateFace(j0, j1, j2 int) int {
	in := k.in()
	if len(in.faces) >= k.faceCountMax {
		return k.faceCountMax
	}
	in.faces = append(in.faces, face{joints: [3]int{j0, j1, j2}})
	k.write()
	return len(in.faces) - 1
}

func (k *Kernel) RemoveFace(f int) {
	in := k.in()
	in.faces = append(in.faces[:f], in.faces[f+1:]...)
	k.write()
}

func (in *instance) faceLaterality(f face) int {
	for _, j := range f.joints {
		if lat := in.joints[j].laterality; lat != fabric.LateralityMiddle {
			return lat
		}
	}
	return fabric.LateralityMiddle
}

func (k *Kernel) FindOppositeFaceIndex(f int) int {
	in := k.in()
	fc := in.faces[f]
	lat := in.faceLaterality(fc)
	if lat == fabric.LateralityMiddle {
		return k.faceCountMax
	}
	tags := sortedTags(in, fc.joints[:]...)
	for i, other := range in.faces {
		if i == f || in.faceLaterality(other) != mirror(lat) {
			continue
		}
		if sameTags(tags, sortedTags(in, other.joints[:]...)) {
			return i
		}
	}
	return k.faceCountMax
}

func (k *Kernel) FaceJointIndex(f, jointNumber int) int {
	return k.in().faces[f].joints[jointNumber]
}

func (k *Kernel) FaceAverageIdealSpan(f int) float32 {
	in := k.in()
	js := in.faces[f].joints
	total := 0.0
	for n := 0; n < 3; n++ {
		total += r3.Norm(r3.Sub(in.joints[js[(n+1)%3]].loc, in.joints[js[n]].loc))
	}
	return float32(total / 3)
}

// Iterate counts down every running interval timer. While the body is not
// hanging, each running interval pushes the body along the ground projection
// of its alpha-to-omega vector, by high minus low for the current direction.
func (k *Kernel) Iterate(ticks int, hanging bool) int {
	in := k.in()
	in.age += ticks
	anchored := hanging && !in.hangerRemoved
	residual := 0
	var shift r3.Vec
	for i := range in.intervals {
		iv := &in.intervals[i]
		if iv.timer == 0 {
			continue
		}
		step := min(ticks, iv.timer)
		iv.timer -= step
		residual = max(residual, iv.timer)
		if anchored || iv.muscle == fabric.IntervalMuscleGrowing {
			continue
		}
		hl := iv.highLow[in.direction]
		push := (float64(hl[0]) - float64(hl[1])) * k.cfg.StrideScale * float64(step) / float64(k.cfg.TriggerTicks)
		v := r3.Sub(in.joints[iv.omega].loc, in.joints[iv.alpha].loc)
		v.Y = 0
		shift = r3.Add(shift, r3.Scale(push, v))
	}
	if residual == 0 {
		in.direction = in.nextDirection
	}
	if shift != (r3.Vec{}) {
		for j := range in.joints {
			in.joints[j].loc = r3.Add(in.joints[j].loc, shift)
		}
	}
	k.write()
	return residual
}

func (k *Kernel) RemoveHanger() {
	k.in().hangerRemoved = true
}

// Centralize moves the body's midpoint over the origin and its lowest joint
// to altitude, scaled by intensity. It returns the vertical shift.
func (k *Kernel) Centralize(altitude, intensity float32) float32 {
	in := k.in()
	if len(in.joints) == 0 {
		return 0
	}
	mid := in.midpoint()
	lowest := in.joints[0].loc.Y
	for _, j := range in.joints[1:] {
		lowest = min(lowest, j.loc.Y)
	}
	dy := (float64(altitude) - lowest) * float64(intensity)
	shift := r3.Vec{X: -mid.X * float64(intensity), Y: dy, Z: -mid.Z * float64(intensity)}
	for j := range in.joints {
		in.joints[j].loc = r3.Add(in.joints[j].loc, shift)
	}
	k.write()
	return float32(dy)
}

func (k *Kernel) SetNextDirection(d genome.Direction) {
	k.in().nextDirection = d
}

func (in *instance) midpoint() r3.Vec {
	var sum r3.Vec
	for _, j := range in.joints {
		sum = r3.Add(sum, j.loc)
	}
	if len(in.joints) == 0 {
		return sum
	}
	return r3.Scale(1/float64(len(in.joints)), sum)
}

// write refreshes the current instance's block of the shared buffer.
func (k *Kernel) write() {
	in := k.in()
	vectors := k.memory[k.layout.Float(k.current, k.layout.VectorsOffset):]
	putVector(vectors, 0, in.midpoint())
	var seed, forward, right r3.Vec
	if len(in.joints) > 0 {
		seed = in.joints[0].loc
	}
	if l, r, ok := in.seedPair(); ok {
		right = r3.Sub(in.joints[r].loc, in.joints[l].loc)
		right.Y = 0
		if n := r3.Norm(right); n > 0 {
			right = r3.Scale(1/n, right)
		}
		forward = r3.Cross(r3.Vec{Y: 1}, right)
	}
	putVector(vectors, 1, seed)
	putVector(vectors, 2, forward)
	putVector(vectors, 3, right)

	midpoints := k.memory[k.layout.Float(k.current, k.layout.FaceMidpointsOffset):]
	normals := k.memory[k.layout.Float(k.current, k.layout.FaceNormalsOffset):]
	locations := k.memory[k.layout.Float(k.current, k.layout.FaceLocationsOffset):]
	for i, f := range in.faces {
		a, b, c := in.joints[f.joints[0]].loc, in.joints[f.joints[1]].loc, in.joints[f.joints[2]].loc
		putVector(midpoints, i, r3.Scale(1.0/3, r3.Add(r3.Add(a, b), c)))
		normal := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		if n := r3.Norm(normal); n > 0 {
			normal = r3.Scale(1/n, normal)
		}
		for n, loc := range [3]r3.Vec{a, b, c} {
			putVector(normals, i*fabric.VectorsForFace+n, normal)
			putVector(locations, i*fabric.VectorsForFace+n, loc)
		}
	}
}

// seedPair finds the first left joint and the right joint sharing its tag.
func (in *instance) seedPair() (left, right int, ok bool) {
	for l, jl := range in.joints {
		if jl.laterality != fabric.LateralityLeft {
			continue
		}
		for r, jr := range in.joints {
			if jr.laterality == fabric.LateralityRight && jr.tag == jl.tag {
				return l, r, true
			}
		}
	}
	return 0, 0, false
}

func putVector(floats []float32, vector int, v r3.Vec) {
	i := vector * fabric.FloatsInVector
	floats[i], floats[i+1], floats[i+2] = float32(v.X), float32(v.Y), float32(v.Z)
}

func sortedTags(in *instance, joints ...int) []int {
	tags := make([]int, len(joints))
	for i, j := range joints {
		tags[i] = in.joints[j].tag
	}
	sort.Ints(tags)
	return tags
}

func sameTags(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
