package geometry

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

type Pose struct {
	_tab flatbuffers.Table
}

func GetRootAsPose(buf []byte, offset flatbuffers.UOffsetT) *Pose {
	n := flatbuffers.GetUOffsetT(buf[offset:])
	x := &Pose{}
	x.Init(buf, n+offset)
	return x
}

func (rcv *Pose) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *Pose) Table() flatbuffers.Table {
	return rcv._tab
}

func (rcv *Pose) X() float64 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(4))
	if o != 0 {
		return rcv._tab.GetFloat64(o + rcv._tab.Pos)
	}
	return 0.0
}

func (rcv *Pose) Y() float64 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(6))
	if o != 0 {
		return rcv._tab.GetFloat64(o + rcv._tab.Pos)
	}
	return 0.0
}

func (rcv *Pose) Theta() float64 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(8))
	if o != 0 {
		return rcv._tab.GetFloat64(o + rcv._tab.Pos)
	}
	return 0.0
}

func PoseStart(builder *flatbuffers.Builder) {
	builder.StartObject(3)
}

func PoseAddX(builder *flatbuffers.Builder, x float64) {
	builder.PrependFloat64Slot(0, x, 0.0)
}

func PoseAddY(builder *flatbuffers.Builder, y float64) {
	builder.PrependFloat64Slot(1, y, 0.0)
}

func PoseAddTheta(builder *flatbuffers.Builder, theta float64) {
	builder.PrependFloat64Slot(2, theta, 0.0)
}

func PoseEnd(builder *flatbuffers.Builder) flatbuffers.UOffsetT {
	return builder.EndObject()
}
