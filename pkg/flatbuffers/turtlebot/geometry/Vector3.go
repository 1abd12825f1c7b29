package geometry

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

type Vector3 struct {
	_tab flatbuffers.Struct
}

func (rcv *Vector3) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *Vector3) Table() flatbuffers.Table {
	return rcv._tab.Table
}

func (rcv *Vector3) X() float64 {
	return rcv._tab.GetFloat64(rcv._tab.Pos + flatbuffers.UOffsetT(0))
}

func (rcv *Vector3) Y() float64 {
	return rcv._tab.GetFloat64(rcv._tab.Pos + flatbuffers.UOffsetT(8))
}

func (rcv *Vector3) Z() float64 {
	return rcv._tab.GetFloat64(rcv._tab.Pos + flatbuffers.UOffsetT(16))
}

func CreateVector3(builder *flatbuffers.Builder, x float64, y float64, z float64) flatbuffers.UOffsetT {
	builder.Prep(8, 24)
	builder.PrependFloat64(z)
	builder.PrependFloat64(y)
	builder.PrependFloat64(x)
	return builder.Offset()
}
