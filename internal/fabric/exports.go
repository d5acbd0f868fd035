// Package fabric is the contract between gotchis and the soft-body simulation
// kernel: the kernel's exported calls, the layout of its shared buffer, a fixed
// pool of instance slots, and per-slot views used to build and drive bodies.
package fabric

import "github.com/geralddejong/galapagotchi/internal/genome"

const (
	// IntervalsReserved intervals at the start of every body are never actuated.
	IntervalsReserved = 1

	IntervalMuscleStatic  = -32767
	IntervalMuscleGrowing = -32766
)

// Joint laterality.
const (
	LateralityMiddle = 0
	LateralityRight  = 1
	LateralityLeft   = 2
)

// Exports is what a simulation kernel offers. Every per-instance call applies
// to the instance most recently chosen with SetInstance. Create calls return
// an index at or beyond the corresponding maximum when capacity is exhausted,
// and the Find calls do the same when there is no opposite.
type Exports interface {
	// Init sizes the kernel and returns the bytes used by one instance block.
	Init(jointCountMax, intervalCountMax, faceCountMax, instanceMax int) int
	// Memory is the shared buffer holding every instance block.
	Memory() []float32
	SetInstance(index int)
	Reset()

	Age() int
	NextJointTag() int
	CreateJoint(tag, laterality int, x, y, z float32) int
	JointCount() int
	JointTag(joint int) int
	JointLaterality(joint int) int

	CreateInterval(muscle, alpha, omega int, span float32) int
	IntervalCount() int
	FindOppositeIntervalIndex(interval int) int
	SetIntervalMuscle(interval, muscle int)
	MuscleStateCount() int
	SetIntervalHighLow(interval int, d genome.Direction, high, low uint8)
	TriggerInterval(interval int)

	CreateFace(joint0, joint1, joint2 int) int
	RemoveFace(face int)
	FaceCount() int
	FindOppositeFaceIndex(face int) int
	FaceJointIndex(face, jointNumber int) int
	FaceAverageIdealSpan(face int) float32

	// Iterate advances by ticks and returns the residual time sweep;
	// zero means the instance has settled.
	Iterate(ticks int, hanging bool) int
	RemoveHanger()
	Centralize(altitude, intensity float32) float32
	SetNextDirection(d genome.Direction)
	CurrentDirection() genome.Direction
}
