package fabric

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/geralddejong/galapagotchi/internal/genome"
)

// Fabric is the view of one kernel slot. Views into the shared buffer are
// cached and dropped whenever the face count changes or the slot is reset.
type Fabric struct {
	kernel   *Kernel
	index    int
	released bool

	viewFaces     int
	vectors       []float32
	faceMidpoints []float32
	faceNormals   []float32
	faceLocations []float32
}

// ex selects this slot's instance before every kernel call.
func (f *Fabric) ex() Exports {
	if f.released {
		panic(fmt.Sprintf("fabric slot %d used after release", f.index))
	}
	f.kernel.exports.SetInstance(f.index)
	return f.kernel.exports
}

// Index is the slot number inside the kernel.
func (f *Fabric) Index() int {
	return f.index
}

// Released reports whether the slot went back to the pool.
func (f *Fabric) Released() bool {
	return f.released
}

func (f *Fabric) JointCount() int    { return f.ex().JointCount() }
func (f *Fabric) IntervalCount() int { return f.ex().IntervalCount() }
func (f *Fabric) FaceCount() int     { return f.ex().FaceCount() }
func (f *Fabric) Age() int           { return f.ex().Age() }

// Iterate advances the instance and returns the residual time sweep.
func (f *Fabric) Iterate(ticks int, hanging bool) int {
	return f.ex().Iterate(ticks, hanging)
}

// RemoveHanger lets go of the anchor joint.
func (f *Fabric) RemoveHanger() {
	f.ex().RemoveHanger()
	f.refresh()
}

// Centralize recenters the body over the origin at altitude and returns the
// vertical shift applied.
func (f *Fabric) Centralize(altitude, intensity float64) float64 {
	return float64(f.ex().Centralize(float32(altitude), float32(intensity)))
}

// SetDirection asks the kernel to switch direction at the next cycle.
func (f *Fabric) SetDirection(d genome.Direction) {
	f.ex().SetNextDirection(d)
}

// Direction is the direction currently being actuated.
func (f *Fabric) Direction() genome.Direction {
	return f.ex().CurrentDirection()
}

// IntervalRange returns the intervals behavior may actuate.
func (f *Fabric) IntervalRange() (first, end int) {
	return IntervalsReserved, f.IntervalCount()
}

// SetIntervalHighLow records the actuation of one interval for d.
func (f *Fabric) SetIntervalHighLow(interval int, d genome.Direction, high, low uint8) {
	f.checkInterval(interval)
	f.ex().SetIntervalHighLow(interval, d, high, low)
}

// SetIntervalMuscle assigns a muscle to an interval and mirrors it onto the
// opposite interval. A negative muscle is mirrored as its absolute value.
func (f *Fabric) SetIntervalMuscle(interval, muscle int) {
	f.checkInterval(interval)
	special := muscle == IntervalMuscleStatic || muscle == IntervalMuscleGrowing
	if !special && abs(muscle) >= f.ex().MuscleStateCount() {
		panic(fmt.Sprintf("bad interval muscle %d", muscle))
	}
	ex := f.ex()
	ex.SetIntervalMuscle(interval, muscle)
	opposite := ex.FindOppositeIntervalIndex(interval)
	if opposite < ex.IntervalCount() {
		oppositeMuscle := muscle
		if !special {
			oppositeMuscle = abs(muscle)
		}
		ex.SetIntervalMuscle(opposite, oppositeMuscle)
	}
}

// TriggerInterval starts an interval's timer.
func (f *Fabric) TriggerInterval(interval int) {
	if interval < 0 || interval >= f.IntervalCount() {
		panic(fmt.Sprintf("bad interval index %d", interval))
	}
	f.ex().TriggerInterval(interval)
}

// TriggerAllIntervals starts every interval's timer.
func (f *Fabric) TriggerAllIntervals() {
	ex := f.ex()
	for i, n := 0, ex.IntervalCount(); i < n; i++ {
		ex.TriggerInterval(i)
	}
}

func (f *Fabric) checkInterval(interval int) {
	if interval < IntervalsReserved || interval >= f.IntervalCount() {
		panic(fmt.Sprintf("bad interval index %d", interval))
	}
}

// Midpoint, Seed, Forward and Right read the instance's vectors.
func (f *Fabric) Midpoint() r3.Vec { return vectorAt(f.vectorView(), 0) }
func (f *Fabric) Seed() r3.Vec     { return vectorAt(f.vectorView(), 1) }
func (f *Fabric) Forward() r3.Vec  { return vectorAt(f.vectorView(), 2) }
func (f *Fabric) Right() r3.Vec    { return vectorAt(f.vectorView(), 3) }

// FaceMidpoints returns three floats per face.
func (f *Fabric) FaceMidpoints() []float32 {
	f.checkViews()
	if f.faceMidpoints == nil {
		f.faceMidpoints = f.view(f.kernel.layout.FaceMidpointsOffset, f.viewFaces*FloatsInVector)
	}
	return f.faceMidpoints
}

// FaceNormals returns nine floats per face, one normal per corner.
func (f *Fabric) FaceNormals() []float32 {
	f.checkViews()
	if f.faceNormals == nil {
		f.faceNormals = f.view(f.kernel.layout.FaceNormalsOffset, f.viewFaces*FloatsInVector*VectorsForFace)
	}
	return f.faceNormals
}

// FaceLocations returns nine floats per face, one location per corner.
func (f *Fabric) FaceLocations() []float32 {
	f.checkViews()
	if f.faceLocations == nil {
		f.faceLocations = f.view(f.kernel.layout.FaceLocationsOffset, f.viewFaces*FloatsInVector*VectorsForFace)
	}
	return f.faceLocations
}

func (f *Fabric) vectorView() []float32 {
	if f.vectors == nil {
		f.vectors = f.view(f.kernel.layout.VectorsOffset, SeedVectors*FloatsInVector)
	}
	return f.vectors
}

func (f *Fabric) view(byteOffset, floats int) []float32 {
	start := f.kernel.blockFloat(f.index, byteOffset)
	mem := f.kernel.exports.Memory()
	return mem[start : start+floats : start+floats]
}

// checkViews drops the face views when the face count moved underneath them.
func (f *Fabric) checkViews() {
	if n := f.FaceCount(); n != f.viewFaces {
		f.refresh()
		f.viewFaces = n
	}
}

// refresh drops every cached view.
func (f *Fabric) refresh() {
	f.faceMidpoints, f.faceNormals, f.faceLocations = nil, nil, nil
	f.vectors = nil
	f.viewFaces = -1
}

func vectorAt(floats []float32, vector int) r3.Vec {
	i := vector * FloatsInVector
	return r3.Vec{X: float64(floats[i]), Y: float64(floats[i+1]), Z: float64(floats[i+2])}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (f *Fabric) String() string {
	if f.released {
		return fmt.Sprintf("Fabric(%d released)", f.index)
	}
	return fmt.Sprintf("Fabric(%d joints=%d intervals=%d faces=%d age=%d)",
		f.index, f.JointCount(), f.IntervalCount(), f.FaceCount(), f.Age())
}
