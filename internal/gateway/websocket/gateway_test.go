package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/missionctl/missionctl/internal/events"
	"github.com/missionctl/missionctl/internal/events/bus"
	ws "github.com/missionctl/missionctl/pkg/websocket"
)

func newTestGateway(t *testing.T) (*Gateway, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gw := NewGateway(testLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go gw.Hub.Run(ctx)

	router := gin.New()
	gw.SetupRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return gw, srv
}

// wsReader decodes envelopes from a connection, unpacking batched frames.
type wsReader struct {
	t     *testing.T
	conn  *gorillaws.Conn
	queue [][]byte
}

func (r *wsReader) next() ws.Message {
	r.t.Helper()
	if len(r.queue) == 0 {
		r.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, frame, err := r.conn.ReadMessage()
		if err != nil {
			r.t.Fatalf("read frame: %v", err)
		}
		for _, part := range bytes.Split(frame, []byte{'\n'}) {
			if len(part) > 0 {
				r.queue = append(r.queue, part)
			}
		}
	}

	data := r.queue[0]
	r.queue = r.queue[1:]

	var msg ws.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		r.t.Fatalf("unmarshal frame %q: %v", data, err)
	}
	return msg
}

func dialWS(t *testing.T, srv *httptest.Server) (*gorillaws.Conn, *wsReader) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn, &wsReader{t: t, conn: conn}
}

func sendRequest(t *testing.T, conn *gorillaws.Conn, id, action string, payload interface{}) {
	t.Helper()
	msg, err := ws.NewRequest(id, action, payload)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	if err := conn.WriteMessage(gorillaws.TextMessage, data); err != nil {
		t.Fatalf("write request: %v", err)
	}
}

func TestGatewayHealthCheck(t *testing.T) {
	_, srv := newTestGateway(t)
	conn, reader := dialWS(t, srv)

	sendRequest(t, conn, "hc-1", ws.ActionHealthCheck, nil)

	resp := reader.next()
	if resp.Type != ws.MessageTypeResponse || resp.ID != "hc-1" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}

	var payload map[string]string
	if err := resp.ParsePayload(&payload); err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if payload["status"] != "ok" || payload["service"] != "missionctl" {
		t.Errorf("unexpected payload: %v", payload)
	}
}

func TestGatewayRejectsMalformedJSON(t *testing.T) {
	_, srv := newTestGateway(t)
	conn, reader := dialWS(t, srv)

	if err := conn.WriteMessage(gorillaws.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}

	resp := reader.next()
	if resp.Type != ws.MessageTypeError {
		t.Fatalf("expected error envelope, got %s", resp.Type)
	}
	var payload ws.ErrorPayload
	if err := resp.ParsePayload(&payload); err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if payload.Code != ws.ErrorCodeBadRequest {
		t.Errorf("code = %q, want %q", payload.Code, ws.ErrorCodeBadRequest)
	}
}

func TestGatewayUnknownAction(t *testing.T) {
	_, srv := newTestGateway(t)
	conn, reader := dialWS(t, srv)

	sendRequest(t, conn, "r1", "bogus.thing", nil)

	resp := reader.next()
	if resp.Type != ws.MessageTypeError {
		t.Fatalf("expected error envelope, got %s", resp.Type)
	}
	var payload ws.ErrorPayload
	if err := resp.ParsePayload(&payload); err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if payload.Code != ws.ErrorCodeUnknownAction {
		t.Errorf("code = %q, want %q", payload.Code, ws.ErrorCodeUnknownAction)
	}
}

func TestGatewaySubscribeRequiresTaskID(t *testing.T) {
	_, srv := newTestGateway(t)
	conn, reader := dialWS(t, srv)

	sendRequest(t, conn, "s1", ws.ActionTaskSubscribe, map[string]string{})

	resp := reader.next()
	if resp.Type != ws.MessageTypeError {
		t.Fatalf("expected error envelope, got %s", resp.Type)
	}
	var payload ws.ErrorPayload
	if err := resp.ParsePayload(&payload); err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if payload.Code != ws.ErrorCodeValidation {
		t.Errorf("code = %q, want %q", payload.Code, ws.ErrorCodeValidation)
	}
}

func TestBroadcasterBridgesBusEvents(t *testing.T) {
	gw, srv := newTestGateway(t)

	memBus := bus.NewMemoryEventBus(testLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	RegisterTaskNotifications(ctx, memBus, gw.Hub, testLogger(t))

	connA, readerA := dialWS(t, srv)
	_, readerB := dialWS(t, srv)
	waitFor(t, func() bool { return gw.Hub.GetClientCount() == 2 }, "clients never registered")

	const taskID = "4f8c30b2-6f23-4a8d-9a57-24c5f0e7c70e"

	// Only client A follows the task's output stream.
	sendRequest(t, connA, "sub-1", ws.ActionTaskSubscribe, map[string]string{"task_id": taskID})
	subResp := readerA.next()
	if subResp.Type != ws.MessageTypeResponse {
		t.Fatalf("subscribe failed: %+v", subResp)
	}

	publish := func(subject, eventType string, data interface{}) {
		t.Helper()
		evt := bus.NewEvent(eventType, "test", data)
		if err := memBus.Publish(context.Background(), subject, evt); err != nil {
			t.Fatalf("publish %s: %v", subject, err)
		}
	}

	publish(events.TaskStarted, events.TaskStarted, events.TaskStartedData{
		TaskID:    taskID,
		AgentID:   "agent-1",
		AgentName: "Scout",
		TaskTitle: "Summarize findings",
		Timestamp: time.Now().UTC(),
	})

	for name, reader := range map[string]*wsReader{"A": readerA, "B": readerB} {
		msg := reader.next()
		if msg.Action != ws.ActionTaskStarted {
			t.Fatalf("client %s got %q, want %q", name, msg.Action, ws.ActionTaskStarted)
		}
		if msg.Type != ws.MessageTypeNotification {
			t.Fatalf("client %s got type %q", name, msg.Type)
		}
	}

	publish(events.BuildTaskOutputSubject(taskID), events.TaskOutput, events.TaskOutputData{
		TaskID:     taskID,
		Content:    "first chunk",
		OutputType: "message",
		Timestamp:  time.Now().UTC(),
	})
	publish(events.TaskCompleted, events.TaskCompleted, events.TaskCompletedData{
		TaskID:    taskID,
		AgentID:   "agent-1",
		Status:    "completed",
		Timestamp: time.Now().UTC(),
	})

	// Subscriber sees the chunk, then completion.
	outMsg := readerA.next()
	if outMsg.Action != ws.ActionTaskOutput {
		t.Fatalf("client A got %q, want %q", outMsg.Action, ws.ActionTaskOutput)
	}
	var outPayload events.TaskOutputData
	if err := outMsg.ParsePayload(&outPayload); err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if outPayload.Content != "first chunk" || outPayload.TaskID != taskID {
		t.Errorf("unexpected output payload: %+v", outPayload)
	}
	if doneMsg := readerA.next(); doneMsg.Action != ws.ActionTaskCompleted {
		t.Errorf("client A got %q, want %q", doneMsg.Action, ws.ActionTaskCompleted)
	}

	// The bystander skips straight to completion without seeing output.
	if msg := readerB.next(); msg.Action != ws.ActionTaskCompleted {
		t.Errorf("client B got %q, want %q", msg.Action, ws.ActionTaskCompleted)
	}
}
