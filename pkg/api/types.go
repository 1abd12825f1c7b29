package api

import (
	"github.com/open-teleop/turtlebot3-test/pkg/msgs"
)

// --- Data Structures for WebSocket Messages ---

// PoseMsg is the JSON form of a turtlesim/msg/Pose accepted on /ws/pose.
// Pointer fields let missing values be told apart from zero.
type PoseMsg struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Theta *float64 `json:"theta"`
}

// Pose converts the message, treating an absent theta as zero.
func (p PoseMsg) Pose() (msgs.Pose, bool) {
	if p.X == nil || p.Y == nil {
		return msgs.Pose{}, false
	}
	pose := msgs.Pose{X: *p.X, Y: *p.Y}
	if p.Theta != nil {
		pose.Theta = *p.Theta
	}
	return pose, true
}
