package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/anstrom/portprobe/internal/api/handlers/mocks"
	"github.com/anstrom/portprobe/internal/probe"
	"github.com/anstrom/portprobe/internal/targets"
)

type rawMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dialStream(t *testing.T, h *ScanHandler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.Stream))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readMessages(t *testing.T, conn *websocket.Conn) []rawMessage {
	t.Helper()
	var msgs []rawMessage
	for {
		var msg rawMessage
		if err := conn.ReadJSON(&msg); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.ClosePolicyViolation),
				"unexpected read error: %v", err)
			return msgs
		}
		msgs = append(msgs, msg)
	}
}

func TestScanHandler_Stream(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)

	engine.EXPECT().Stream(gomock.Any(), gomock.Len(3)).DoAndReturn(
		func(_ context.Context, batch []targets.Target) <-chan probe.Result {
			ch := make(chan probe.Result, len(batch))
			for i, tgt := range batch {
				state := probe.StateOpen
				if i == 0 {
					state = probe.StateClosed
				}
				ch <- probe.Result{IP: tgt.IP, Port: tgt.Port, Protocol: tgt.Protocol, State: state}
			}
			close(ch)
			return ch
		})

	conn := dialStream(t, NewScanHandler(engine, createTestLogger(), 0, 0))
	require.NoError(t, conn.WriteJSON(ScanRequest{Targets: []TargetRequest{
		{IP: "10.0.0.1", Port: 22},
		{IP: "10.0.0.1", Port: 80},
		{IP: "10.0.0.1", Port: 53, Protocol: targets.UDP},
	}}))

	msgs := readMessages(t, conn)
	require.Len(t, msgs, 4)

	for _, m := range msgs[:3] {
		assert.Equal(t, MessageTypeResult, m.Type)
		var res probe.Result
		require.NoError(t, json.Unmarshal(m.Data, &res))
		assert.Equal(t, "10.0.0.1", res.IP)
	}

	assert.Equal(t, MessageTypeComplete, msgs[3].Type)
	var summary StreamSummary
	require.NoError(t, json.Unmarshal(msgs[3].Data, &summary))
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, map[string]int{"open": 2, "closed": 1}, summary.States)
}

func TestScanHandler_StreamEmptyBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Stream(gomock.Any(), gomock.Len(0)).DoAndReturn(
		func(context.Context, []targets.Target) <-chan probe.Result {
			ch := make(chan probe.Result)
			close(ch)
			return ch
		})

	conn := dialStream(t, NewScanHandler(engine, createTestLogger(), 0, 0))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"targets":[]}`)))

	msgs := readMessages(t, conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, MessageTypeComplete, msgs[0].Type)
}

func TestScanHandler_StreamRejectsBadRequest(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		maxSize int
		want    string
	}{
		{"malformed json", `{"targets":`, 0, "invalid JSON"},
		{"invalid target", `{"targets":[{"ip":"nope","port":22}]}`, 0, "validation failed"},
		{"too many targets", `{"targets":[{"ip":"10.0.0.1","port":22},{"ip":"10.0.0.2","port":22}]}`, 1, "too many targets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			engine := mocks.NewMockEngine(ctrl)

			conn := dialStream(t, NewScanHandler(engine, createTestLogger(), 0, tt.maxSize))
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.payload)))

			msgs := readMessages(t, conn)
			require.Len(t, msgs, 1)
			assert.Equal(t, MessageTypeError, msgs[0].Type)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(msgs[0].Data, &resp))
			assert.Contains(t, resp.Error, tt.want)
		})
	}
}
