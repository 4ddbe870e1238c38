package control

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-clouds/engine/cloud"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req any) Response {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.WriteJSON(req))
	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestNewServerRequiresQueue(t *testing.T) {
	_, err := NewServer()
	assert.ErrorIs(t, err, ErrNoQueue)
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		want    cloud.Command
		wantErr bool
	}{
		{"preset", Request{Command: "preset", Preset: "cirrus"}, cloud.PresetCommand(cloud.PresetCirrus), false},
		{"preset case", Request{Command: " PRESET ", Preset: "High-Performance"}, cloud.PresetCommand(cloud.PresetHighPerformance), false},
		{"regenerate", Request{Command: "regenerate"}, cloud.RegenerateCommand(), false},
		{"unknown preset", Request{Command: "preset", Preset: "nimbus"}, cloud.Command{}, true},
		{"missing preset", Request{Command: "preset"}, cloud.Command{}, true},
		{"unknown command", Request{Command: "explode"}, cloud.Command{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequest(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSocketQueuesCommands(t *testing.T) {
	queue := cloud.NewCommandQueue()
	s, err := NewServer(WithQueue(queue))
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	conn := dial(t, "ws"+strings.TrimPrefix(ts.URL, "http")+DefaultPath)

	resp := roundTrip(t, conn, Request{Command: "preset", Preset: "stratocumulus"})
	assert.True(t, resp.OK)
	assert.Equal(t, "preset", resp.Command)
	assert.Equal(t, "stratocumulus", resp.Preset)

	resp = roundTrip(t, conn, Request{Command: "regenerate"})
	assert.True(t, resp.OK)
	assert.Equal(t, "regenerate", resp.Command)

	resp = roundTrip(t, conn, Request{Command: "preset", Preset: "nimbus"})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "nimbus")

	assert.Equal(t, []cloud.Command{
		cloud.PresetCommand(cloud.PresetStratocumulus),
		cloud.RegenerateCommand(),
	}, queue.Drain())
}

func TestSocketRejectsMalformedJSON(t *testing.T) {
	s, err := NewServer(WithQueue(cloud.NewCommandQueue()))
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dial(t, "ws"+strings.TrimPrefix(ts.URL, "http")+DefaultPath)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	// the server drops the connection on undecodable input
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestStartAndShutdown(t *testing.T) {
	queue := cloud.NewCommandQueue()
	s, err := NewServer(WithQueue(queue), WithAddress("127.0.0.1:0"), WithPath("clouds"))
	require.NoError(t, err)
	assert.Empty(t, s.Addr())

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "second Start must fail while listening")
	addr := s.Addr()
	require.NotEmpty(t, addr)

	conn := dial(t, "ws://"+addr+"/clouds")
	resp := roundTrip(t, conn, Request{Command: "regenerate"})
	assert.True(t, resp.OK)
	assert.Equal(t, 1, queue.Len())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.Empty(t, s.Addr())
	assert.NoError(t, s.Shutdown(ctx), "shutdown of a stopped server is a no-op")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "open connections are closed on shutdown")
}
