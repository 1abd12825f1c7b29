package sensor

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

type Time struct {
	_tab flatbuffers.Struct
}

func (rcv *Time) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *Time) Table() flatbuffers.Table {
	return rcv._tab.Table
}

func (rcv *Time) Sec() int32 {
	return rcv._tab.GetInt32(rcv._tab.Pos + flatbuffers.UOffsetT(0))
}

func (rcv *Time) Nanosec() uint32 {
	return rcv._tab.GetUint32(rcv._tab.Pos + flatbuffers.UOffsetT(4))
}

func CreateTime(builder *flatbuffers.Builder, sec int32, nanosec uint32) flatbuffers.UOffsetT {
	builder.Prep(4, 8)
	builder.PrependUint32(nanosec)
	builder.PrependInt32(sec)
	return builder.Offset()
}
