package diagnostic

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customlog "github.com/open-teleop/turtlebot3-test/pkg/log"
	"github.com/open-teleop/turtlebot3-test/pkg/msgs"
	"github.com/open-teleop/turtlebot3-test/pkg/runtime"
)

type stubPose struct {
	pose msgs.Pose
	ok   bool
}

func (s stubPose) LastPose() (msgs.Pose, bool) { return s.pose, s.ok }

func spinningExecutor(t *testing.T) *runtime.Executor {
	t.Helper()
	exec := runtime.NewExecutor(runtime.NewLoopbackTransport(), customlog.NewNopLogger(),
		&runtime.ExecutorOptions{NodeName: "turtlebot3_test_node"})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = exec.Spin(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = exec.Close()
	})
	return exec
}

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestSnapshot(t *testing.T) {
	exec := spinningExecutor(t)
	_, err := exec.CreatePublisher("/turtle1/cmd_vel", msgs.TwistTypeName)
	require.NoError(t, err)

	svc := NewDiagnosticService(exec, stubPose{pose: msgs.Pose{X: 1, Y: 2, Theta: 3}, ok: true}, customlog.NewNopLogger())
	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "turtlebot3_test_node", snap.NodeName)
	assert.Equal(t, exec.SourceID(), snap.SourceID)
	require.NotNil(t, snap.LastPose)
	assert.Equal(t, msgs.Pose{X: 1, Y: 2, Theta: 3}, *snap.LastPose)
	assert.Contains(t, snap.Topics, "/turtle1/cmd_vel")
	assert.Equal(t, snap, svc.LastSnapshot())
}

func TestDiagnosticsHandler(t *testing.T) {
	exec := spinningExecutor(t)
	svc := NewDiagnosticService(exec, stubPose{}, customlog.NewNopLogger())

	app := fiber.New()
	app.Get("/api/v1/diagnostics", svc.GetDiagnosticsHandler)
	app.Get("/api/v1/topics", svc.GetTopicsHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/diagnostics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "success", body["status"])
	diag := body["diagnostics"].(map[string]interface{})
	assert.Equal(t, "turtlebot3_test_node", diag["node_name"])
	assert.Nil(t, diag["last_pose"])

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/topics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", decodeBody(t, resp.Body)["status"])
}

func TestDiagnosticsHandlerWhenExecutorIdle(t *testing.T) {
	// Not spinning, so Do never completes.
	exec := runtime.NewExecutor(runtime.NewLoopbackTransport(), customlog.NewNopLogger(),
		&runtime.ExecutorOptions{NodeName: "idle"})
	defer exec.Close()

	svc := NewDiagnosticService(exec, stubPose{}, customlog.NewNopLogger())
	svc.SetSnapshotTimeout(20 * time.Millisecond)

	app := fiber.New()
	app.Get("/api/v1/diagnostics", svc.GetDiagnosticsHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/diagnostics", nil), 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "stale", body["status"])
	diag := body["diagnostics"].(map[string]interface{})
	assert.Equal(t, "idle", diag["node_name"])
}
