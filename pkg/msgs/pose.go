package msgs

import (
	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/open-teleop/turtlebot3-test/pkg/flatbuffers/turtlebot/geometry"
)

// Pose is a planar robot pose.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

func (Pose) TypeName() string { return PoseTypeName }

func (p Pose) Marshal() ([]byte, error) {
	builder := flatbuffers.NewBuilder(64)
	geometry.PoseStart(builder)
	geometry.PoseAddX(builder, p.X)
	geometry.PoseAddY(builder, p.Y)
	geometry.PoseAddTheta(builder, p.Theta)
	builder.Finish(geometry.PoseEnd(builder))
	return builder.FinishedBytes(), nil
}

// UnmarshalPose decodes a Pose table.
func UnmarshalPose(data []byte) (Pose, error) {
	var p Pose
	err := decode(PoseTypeName, data, func() {
		fb := geometry.GetRootAsPose(data, 0)
		p = Pose{X: fb.X(), Y: fb.Y(), Theta: fb.Theta()}
	})
	return p, err
}
