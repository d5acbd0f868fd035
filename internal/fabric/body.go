package fabric

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// JointSnapshot is one corner of a face as it was when the snapshot was taken.
type JointSnapshot struct {
	JointNumber int // position in the face, 0..2
	JointIndex  int
	Tag         int
	Laterality  int
	Location    r3.Vec
}

// Face is a snapshot of one face; indices go stale after any face change.
type Face struct {
	Index            int
	Laterality       int
	Joints           [3]JointSnapshot
	Midpoint         r3.Vec
	Normal           r3.Vec
	AverageIdealSpan float64
}

// Face snapshots the face at index.
func (f *Fabric) Face(index int) Face {
	ex := f.ex()
	if index < 0 || index >= ex.FaceCount() {
		panic(fmt.Sprintf("bad face index %d", index))
	}
	midpoints := f.FaceMidpoints()
	normals := f.FaceNormals()
	locations := f.FaceLocations()

	face := Face{
		Index:            index,
		Laterality:       LateralityMiddle,
		Midpoint:         vectorAt(midpoints, index),
		Normal:           vectorAt(normals, index*VectorsForFace),
		AverageIdealSpan: float64(ex.FaceAverageIdealSpan(index)),
	}
	for n := 0; n < 3; n++ {
		joint := ex.FaceJointIndex(index, n)
		lat := ex.JointLaterality(joint)
		face.Joints[n] = JointSnapshot{
			JointNumber: n,
			JointIndex:  joint,
			Tag:         ex.JointTag(joint),
			Laterality:  lat,
			Location:    vectorAt(locations, index*VectorsForFace+n),
		}
		if lat != LateralityMiddle {
			face.Laterality = lat
		}
	}
	return face
}

// CreateSeed builds the starting body: a hanger joint, a ring of corners and
// a left/right pair, joined into a closed double pyramid. The body is then
// centralized at altitude.
func (f *Fabric) CreateSeed(corners int, altitude float64) {
	f.CreateSeedFacing(corners, altitude, 0)
}

// CreateSeedFacing is CreateSeed with the body turned about the vertical
// axis by heading radians, counterclockwise seen from above. At heading zero
// the body faces +X.
func (f *Fabric) CreateSeedFacing(corners int, altitude, heading float64) {
	ex := f.ex()
	const radius = 1.0
	sin, cos := math.Sincos(heading)
	joint := func(tag, laterality int, x, y, z float64) int {
		return ex.CreateJoint(tag, laterality, float32(x*cos+z*sin), float32(y), float32(z*cos-x*sin))
	}
	hanger := joint(ex.NextJointTag(), LateralityMiddle, 0, 0, 0)
	for walk := 0; walk < corners; walk++ {
		angle := float64(walk) * math.Pi * 2 / float64(corners)
		joint(ex.NextJointTag(), LateralityMiddle, radius*math.Sin(angle), radius*math.Cos(angle), 0)
	}
	pairTag := ex.NextJointTag()
	left := joint(pairTag, LateralityLeft, 0, 0, -radius)
	right := joint(pairTag, LateralityRight, 0, 0, radius)

	f.interval(hanger, left, -1)
	f.interval(hanger, right, -1)
	f.interval(left, right, -1)
	for walk := 0; walk < corners; walk++ {
		next := (walk+1)%corners + 1
		f.interval(walk+1, next, -1)
		f.interval(walk+1, left, -1)
		f.interval(walk+1, right, -1)
	}
	for walk := 0; walk < corners; walk++ {
		next := (walk+1)%corners + 1
		f.face(left, walk+1, next)
		f.face(right, next, walk+1)
	}
	f.Centralize(altitude, 1)
	f.refresh()
}

// Unfold grows a new apex out of the face around one of its joints, and
// mirrors the growth onto the opposite face when there is one. It returns
// the faces created last, or nothing when joint capacity would be exceeded.
func (f *Fabric) Unfold(faceIndex, jointNumber int) []Face {
	if f.JointCount()+2 >= f.kernel.JointCountMax {
		return nil
	}
	ex := f.ex()
	apexTag := ex.NextJointTag()
	opposite := ex.FindOppositeFaceIndex(faceIndex)
	fresh := f.unfoldFace(f.Face(faceIndex), jointNumber, apexTag)
	if fresh == nil || opposite >= f.kernel.FaceCountMax {
		return fresh
	}
	if opposite > faceIndex {
		opposite-- // faceIndex was removed
	}
	if mirrored := f.unfoldFace(f.Face(opposite), jointNumber, apexTag); mirrored != nil {
		return mirrored
	}
	return fresh
}

func (f *Fabric) unfoldFace(face Face, jointNumber int, apexTag int) []Face {
	ex := f.ex()
	var jointIndex [3]int
	for i, j := range face.Joints {
		jointIndex[i] = j.JointIndex
	}
	sorted := face.Joints
	sort.SliceStable(sorted[:], func(a, b int) bool { return sorted[a].Tag > sorted[b].Tag })
	chosen := sorted[jointNumber%3]

	apexLocation := r3.Add(chosen.Location, r3.Scale(face.AverageIdealSpan*0.1, face.Normal))
	apex := ex.CreateJoint(apexTag, face.Laterality,
		float32(apexLocation.X), float32(apexLocation.Y), float32(apexLocation.Z))
	if apex >= f.kernel.JointCountMax {
		return nil
	}
	for _, j := range sorted {
		if j.JointNumber != chosen.JointNumber {
			f.interval(j.JointIndex, apex, r3.Norm(r3.Sub(j.Location, apexLocation)))
		}
	}
	f.intervalGrowth(chosen.JointIndex, apex, face.AverageIdealSpan)

	created := make([]int, 0, 3)
	for _, j := range sorted { // youngest first
		switch j.JointNumber {
		case 0:
			created = append(created, f.face(jointIndex[1], jointIndex[2], apex))
		case 1:
			created = append(created, f.face(jointIndex[2], jointIndex[0], apex))
		case 2:
			created = append(created, f.face(jointIndex[0], jointIndex[1], apex))
		}
	}
	ex.RemoveFace(face.Index)
	f.refresh()

	faces := make([]Face, 0, len(created))
	for _, index := range created {
		if index >= f.kernel.FaceCountMax {
			continue
		}
		faces = append(faces, f.Face(index-1)) // created above the removed face
	}
	return faces
}

func (f *Fabric) face(joint0, joint1, joint2 int) int {
	index := f.ex().CreateFace(joint0, joint1, joint2)
	f.refresh()
	return index
}

func (f *Fabric) interval(alpha, omega int, span float64) int {
	return f.ex().CreateInterval(IntervalMuscleStatic, alpha, omega, float32(span))
}

func (f *Fabric) intervalGrowth(alpha, omega int, span float64) int {
	ex := f.ex()
	index := ex.CreateInterval(IntervalMuscleGrowing, alpha, omega, float32(span))
	if index < f.kernel.IntervalCountMax {
		ex.TriggerInterval(index)
	}
	return index
}
