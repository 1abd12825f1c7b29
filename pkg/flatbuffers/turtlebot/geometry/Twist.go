package geometry

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

type Twist struct {
	_tab flatbuffers.Table
}

func GetRootAsTwist(buf []byte, offset flatbuffers.UOffsetT) *Twist {
	n := flatbuffers.GetUOffsetT(buf[offset:])
	x := &Twist{}
	x.Init(buf, n+offset)
	return x
}

func (rcv *Twist) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *Twist) Table() flatbuffers.Table {
	return rcv._tab
}

func (rcv *Twist) Linear(obj *Vector3) *Vector3 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(4))
	if o != 0 {
		x := o + rcv._tab.Pos
		if obj == nil {
			obj = new(Vector3)
		}
		obj.Init(rcv._tab.Bytes, x)
		return obj
	}
	return nil
}

func (rcv *Twist) Angular(obj *Vector3) *Vector3 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(6))
	if o != 0 {
		x := o + rcv._tab.Pos
		if obj == nil {
			obj = new(Vector3)
		}
		obj.Init(rcv._tab.Bytes, x)
		return obj
	}
	return nil
}

func TwistStart(builder *flatbuffers.Builder) {
	builder.StartObject(2)
}

func TwistAddLinear(builder *flatbuffers.Builder, linear flatbuffers.UOffsetT) {
	builder.PrependStructSlot(0, flatbuffers.UOffsetT(linear), 0)
}

func TwistAddAngular(builder *flatbuffers.Builder, angular flatbuffers.UOffsetT) {
	builder.PrependStructSlot(1, flatbuffers.UOffsetT(angular), 0)
}

func TwistEnd(builder *flatbuffers.Builder) flatbuffers.UOffsetT {
	return builder.EndObject()
}
