package msgs

import (
	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/open-teleop/turtlebot3-test/pkg/flatbuffers/turtlebot/geometry"
)

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Twist is a velocity command in free space.
type Twist struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

func (Twist) TypeName() string { return TwistTypeName }

func (t Twist) Marshal() ([]byte, error) {
	builder := flatbuffers.NewBuilder(128)
	geometry.TwistStart(builder)
	geometry.TwistAddLinear(builder, geometry.CreateVector3(builder, t.Linear.X, t.Linear.Y, t.Linear.Z))
	geometry.TwistAddAngular(builder, geometry.CreateVector3(builder, t.Angular.X, t.Angular.Y, t.Angular.Z))
	builder.Finish(geometry.TwistEnd(builder))
	return builder.FinishedBytes(), nil
}

// UnmarshalTwist decodes a Twist table. Absent vectors read as zero.
func UnmarshalTwist(data []byte) (Twist, error) {
	var t Twist
	err := decode(TwistTypeName, data, func() {
		fb := geometry.GetRootAsTwist(data, 0)
		var v geometry.Vector3
		if fb.Linear(&v) != nil {
			t.Linear = Vector3{X: v.X(), Y: v.Y(), Z: v.Z()}
		}
		if fb.Angular(&v) != nil {
			t.Angular = Vector3{X: v.X(), Y: v.Y(), Z: v.Z()}
		}
	})
	return t, err
}
