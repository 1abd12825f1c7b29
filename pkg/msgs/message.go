// Package msgs holds the message types exchanged by the test node and their
// FlatBuffers encoding.
package msgs

import (
	"errors"
	"fmt"
	"time"
)

// Message type names as they appear on the wire
const (
	PoseTypeName      = "turtlesim/msg/Pose"
	TwistTypeName     = "geometry_msgs/msg/Twist"
	LaserScanTypeName = "sensor_msgs/msg/LaserScan"
)

// smallest buffer that can carry a root offset, a table and its vtable
const minBufferSize = 12

var (
	ErrShortBuffer = errors.New("buffer too short for flatbuffer root")
	ErrMalformed   = errors.New("malformed flatbuffer")
)

// Message is anything a publisher can put on a topic.
type Message interface {
	TypeName() string
	Marshal() ([]byte, error)
}

// Time is a ROS style timestamp.
type Time struct {
	Sec     int32  `json:"sec"`
	Nanosec uint32 `json:"nanosec"`
}

// NewTime converts a wall clock time.
func NewTime(t time.Time) Time {
	return Time{
		Sec:     int32(t.Unix()),
		Nanosec: uint32(t.Nanosecond()),
	}
}

// ToTime converts back to a time.Time in UTC.
func (t Time) ToTime() time.Time {
	return time.Unix(int64(t.Sec), int64(t.Nanosec)).UTC()
}

// decode guards a flatbuffer read. The generated accessors index the buffer
// directly and panic on corrupt offsets.
func decode(typeName string, data []byte, read func()) (err error) {
	if len(data) < minBufferSize {
		return fmt.Errorf("decoding %s (%d bytes): %w", typeName, len(data), ErrShortBuffer)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoding %s: %w: %v", typeName, ErrMalformed, r)
		}
	}()
	read()
	return nil
}
