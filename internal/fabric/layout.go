package fabric

const (
	FloatsInVector = 3
	VectorsForFace = 3
	bytesPerFloat  = 4

	// SeedVectors are midpoint, seed, forward and right, in that order.
	SeedVectors = 4
)

// Layout holds the byte offsets of the views inside one instance block.
// It is computed once from faceCountMax and never changes afterwards.
type Layout struct {
	FaceCountMax        int
	VectorsOffset       int
	FaceMidpointsOffset int
	FaceNormalsOffset   int
	FaceLocationsOffset int
	InstanceBytes       int
}

// NewLayout lays out the vectors, face midpoints, face normals and face
// locations back to back.
func NewLayout(faceCountMax int) Layout {
	seedVectorFloats := SeedVectors * FloatsInVector
	faceVectorFloats := faceCountMax * FloatsInVector
	faceJointFloats := faceVectorFloats * VectorsForFace

	l := Layout{FaceCountMax: faceCountMax}
	l.VectorsOffset = 0
	l.FaceMidpointsOffset = l.VectorsOffset + seedVectorFloats*bytesPerFloat
	l.FaceNormalsOffset = l.FaceMidpointsOffset + faceVectorFloats*bytesPerFloat
	l.FaceLocationsOffset = l.FaceNormalsOffset + faceJointFloats*bytesPerFloat
	l.InstanceBytes = l.FaceLocationsOffset + faceJointFloats*bytesPerFloat
	return l
}

// InstanceFloats is the size of one instance block in floats.
func (l Layout) InstanceFloats() int {
	return l.InstanceBytes / bytesPerFloat
}

// Float returns the float index of a byte offset inside the block of instance.
func (l Layout) Float(instance, byteOffset int) int {
	return (instance*l.InstanceBytes + byteOffset) / bytesPerFloat
}
