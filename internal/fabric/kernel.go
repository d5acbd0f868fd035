package fabric

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
)

// ErrSlotExhausted is returned when every instance slot is in use.
var ErrSlotExhausted = errors.New("fabric instance slots exhausted")

// Kernel owns a simulation kernel and its fixed pool of instance slots.
type Kernel struct {
	exports Exports
	layout  Layout

	InstanceMax      int
	JointCountMax    int
	IntervalCountMax int
	FaceCountMax     int

	blockBytes int
	slots      []*Fabric // nil when free
}

// NewKernel initialises exports for instanceMax bodies of up to jointCountMax joints.
// The interval and face maxima are derived from the joint maximum.
func NewKernel(exports Exports, instanceMax, jointCountMax int) (*Kernel, error) {
	if instanceMax <= 0 || jointCountMax <= 0 {
		return nil, fmt.Errorf("kernel: instanceMax %d, jointCountMax %d", instanceMax, jointCountMax)
	}
	k := &Kernel{
		exports:          exports,
		InstanceMax:      instanceMax,
		JointCountMax:    jointCountMax,
		IntervalCountMax: jointCountMax*3 + 30,
		FaceCountMax:     jointCountMax*2 + 20,
		slots:            make([]*Fabric, instanceMax),
	}
	k.layout = NewLayout(k.FaceCountMax)
	k.blockBytes = exports.Init(k.JointCountMax, k.IntervalCountMax, k.FaceCountMax, k.InstanceMax)
	if k.blockBytes < k.layout.InstanceBytes || k.blockBytes%bytesPerFloat != 0 {
		return nil, fmt.Errorf("kernel: block of %d bytes cannot hold layout of %d", k.blockBytes, k.layout.InstanceBytes)
	}
	if need := k.blockFloat(instanceMax, 0); len(exports.Memory()) < need {
		return nil, fmt.Errorf("kernel: buffer of %d floats, need %d", len(exports.Memory()), need)
	}
	slog.Info("fabric kernel ready",
		"instances", instanceMax,
		"joints", jointCountMax,
		"block", humanize.Bytes(uint64(k.blockBytes)),
		"buffer", humanize.Bytes(uint64(k.BufferBytes())))
	return k, nil
}

// Layout returns the view offsets computed at construction.
func (k *Kernel) Layout() Layout {
	return k.layout
}

// BlockBytes is the size the kernel reported for one instance.
func (k *Kernel) BlockBytes() int {
	return k.blockBytes
}

// blockFloat returns the float index of a byte offset inside the block of
// instance. Blocks are strided by the size the kernel reported, which may
// exceed the layout.
func (k *Kernel) blockFloat(instance, byteOffset int) int {
	return (instance*k.blockBytes + byteOffset) / bytesPerFloat
}

// BufferBytes is the size of the whole shared buffer.
func (k *Kernel) BufferBytes() int {
	return len(k.exports.Memory()) * bytesPerFloat
}

// Live counts the slots currently allocated.
func (k *Kernel) Live() int {
	n := 0
	for _, f := range k.slots {
		if f != nil {
			n++
		}
	}
	return n
}

// Free counts the slots available for allocation.
func (k *Kernel) Free() int {
	return k.InstanceMax - k.Live()
}

// Allocate hands out the lowest free slot, reset and ready for a new body.
func (k *Kernel) Allocate() (*Fabric, error) {
	for i, f := range k.slots {
		if f != nil {
			continue
		}
		f = &Fabric{kernel: k, index: i}
		f.ex().Reset()
		f.refresh()
		k.slots[i] = f
		return f, nil
	}
	return nil, ErrSlotExhausted
}

// Release resets the slot held by f and returns it to the pool.
// Releasing twice is a no-op.
func (k *Kernel) Release(f *Fabric) {
	if f == nil || f.released || k.slots[f.index] != f {
		return
	}
	f.ex().Reset()
	f.refresh()
	f.released = true
	k.slots[f.index] = nil
}

func (k *Kernel) String() string {
	return fmt.Sprintf("Kernel(live=%d/%d joints=%d block=%s)",
		k.Live(), k.InstanceMax, k.JointCountMax, humanize.Bytes(uint64(k.blockBytes)))
}
