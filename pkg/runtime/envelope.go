package runtime

import (
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/open-teleop/turtlebot3-test/pkg/flatbuffers/turtlebot/message"
)

// EnvelopeVersion is written into every envelope this runtime produces.
const EnvelopeVersion = 1

const minEnvelopeSize = 12

var ErrMalformedEnvelope = errors.New("malformed envelope")

// Envelope is the transport frame wrapped around every published message.
type Envelope struct {
	Topic       string
	TypeName    string
	SourceID    string
	Sequence    uint64
	TimestampNs int64
	Payload     []byte
}

// EncodeEnvelope serializes env as a FlatBuffers Envelope table.
func EncodeEnvelope(env Envelope) []byte {
	builder := flatbuffers.NewBuilder(128 + len(env.Payload))

	topicOffset := builder.CreateString(env.Topic)
	typeOffset := builder.CreateString(env.TypeName)
	sourceOffset := builder.CreateString(env.SourceID)
	payloadOffset := builder.CreateByteVector(env.Payload)

	message.EnvelopeStart(builder)
	message.EnvelopeAddTopic(builder, topicOffset)
	message.EnvelopeAddTypeName(builder, typeOffset)
	message.EnvelopeAddSourceId(builder, sourceOffset)
	message.EnvelopeAddSequence(builder, env.Sequence)
	message.EnvelopeAddTimestampNs(builder, env.TimestampNs)
	message.EnvelopeAddPayload(builder, payloadOffset)
	message.EnvelopeAddVersion(builder, EnvelopeVersion)
	builder.Finish(message.EnvelopeEnd(builder))

	return builder.FinishedBytes()
}

// DecodeEnvelope parses an Envelope. The returned payload does not alias data.
func DecodeEnvelope(data []byte) (env Envelope, err error) {
	if len(data) < minEnvelopeSize {
		return Envelope{}, fmt.Errorf("%w: %d bytes", ErrMalformedEnvelope, len(data))
	}
	defer func() {
		if r := recover(); r != nil {
			env = Envelope{}
			err = fmt.Errorf("%w: %v", ErrMalformedEnvelope, r)
		}
	}()

	fb := message.GetRootAsEnvelope(data, 0)
	if v := fb.Version(); v != EnvelopeVersion {
		return Envelope{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedEnvelope, v)
	}

	env = Envelope{
		Topic:       string(fb.Topic()),
		TypeName:    string(fb.TypeName()),
		SourceID:    string(fb.SourceId()),
		Sequence:    fb.Sequence(),
		TimestampNs: fb.TimestampNs(),
		Payload:     append([]byte(nil), fb.PayloadBytes()...),
	}
	if env.Topic == "" || env.TypeName == "" {
		return Envelope{}, fmt.Errorf("%w: missing topic or type", ErrMalformedEnvelope)
	}
	return env, nil
}
