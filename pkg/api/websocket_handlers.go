package api

import (
	"encoding/json"
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	customlog "github.com/open-teleop/turtlebot3-test/pkg/log"
)

// Pose frames beyond this rate are dropped so a chatty client cannot fill
// the executor queue.
const (
	PoseFrameRate  = 50
	PoseFrameBurst = 10
)

// Injector delivers an encoded message to the node's local subscriptions.
type Injector interface {
	Inject(topic string, payload []byte) error
}

// RegisterWebSocketRoutes mounts /ws/pose. Each text frame is a JSON pose
// that is injected on poseTopic.
func RegisterWebSocketRoutes(app *fiber.App, injector Injector, poseTopic string, logger customlog.Logger) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/pose", websocket.New(func(conn *websocket.Conn) {
		PoseWebSocketHandler(conn, logger, injector, poseTopic)
	}))
}

// PoseWebSocketHandler reads JSON poses from a WebSocket until it closes.
func PoseWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, injector Injector, poseTopic string) {
	logger.Infof("Pose WebSocket connected: %s", conn.RemoteAddr())
	var (
		mt  int
		msg []byte
		err error
	)
	limiter := rate.NewLimiter(rate.Limit(PoseFrameRate), PoseFrameBurst)
	for {
		if mt, msg, err = conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("Pose WS read error: %v", err)
			} else if err != websocket.ErrCloseSent && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
				logger.Infof("Pose WS connection closed: %v", err)
			} else {
				logger.Infof("Pose WS connection closed normally.")
			}
			break
		}

		if mt != websocket.TextMessage {
			logger.Infof("Ignoring non-text Pose WS message type: %d", mt)
			continue
		}
		if !limiter.Allow() {
			logger.Warnf("Pose WS frame rate above %d/s, dropping frame", PoseFrameRate)
			continue
		}

		var poseMsg PoseMsg
		if err := json.Unmarshal(msg, &poseMsg); err != nil {
			logger.Warnf("Failed to unmarshal pose from WS: %v. Message: %s", err, string(msg))
			continue
		}
		pose, ok := poseMsg.Pose()
		if !ok {
			logger.Warnf("Pose from WS is missing x or y: %s", string(msg))
			continue
		}

		payload, err := pose.Marshal()
		if err != nil {
			logger.Errorf("Failed to encode pose: %v", err)
			continue
		}
		if err := injector.Inject(poseTopic, payload); err != nil {
			logger.Errorf("Failed to inject pose on %s: %v", poseTopic, err)
			continue
		}
		logger.Debugf("Injected pose via WS: x=%.2f, y=%.2f, theta=%.2f", pose.X, pose.Y, pose.Theta)
	}
	logger.Infof("Pose WebSocket disconnected: %s", conn.RemoteAddr())
}
