package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// sessionStub answers control commands the way a live recording session
// does, with just enough state to exercise the stop transition.
type sessionStub struct {
	mu         sync.Mutex
	state      string
	transcript string
	pending    string
	confirmed  int
	watermark  float64
}

func (s *sessionStub) Handle(_ context.Context, req Request) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Command {
	case "status":
		return Response{
			OK:        true,
			State:     s.state,
			Pending:   s.pending,
			Confirmed: s.confirmed,
			Watermark: s.watermark,
		}
	case "transcript":
		return Response{OK: true, State: s.state, Transcript: s.transcript, Pending: s.pending}
	case "stop":
		if s.state != "recording" {
			return Response{OK: false, State: s.state, Error: "no active recording"}
		}
		s.state = "stopped"
		s.pending = ""
		return Response{OK: true, State: s.state, Message: "stop requested"}
	default:
		return Response{OK: false, State: s.state, Error: "unknown command: " + req.Command}
	}
}

func startSessionServer(t *testing.T, stub *sessionStub) string {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "murmur.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(ctx, listener, stub)
	}()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-serveDone)
	})
	return socketPath
}

func TestSessionControlExchange(t *testing.T) {
	stub := &sessionStub{
		state:      "recording",
		transcript: "the quick brown",
		pending:    "fox jumps",
		confirmed:  3,
		watermark:  6,
	}
	socketPath := startSessionServer(t, stub)
	ctx := context.Background()

	status, err := Send(ctx, socketPath, Request{Command: "status"}, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, status.OK)
	require.Equal(t, "recording", status.State)
	require.Equal(t, "fox jumps", status.Pending)
	require.Equal(t, 3, status.Confirmed)
	require.Equal(t, 6.0, status.Watermark)

	stop, err := Send(ctx, socketPath, Request{Command: "stop"}, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, stop.OK)
	require.Equal(t, "stopped", stop.State)
	require.Equal(t, "stop requested", stop.Message)

	// A second stop finds nothing left to stop.
	again, err := Send(ctx, socketPath, Request{Command: "stop"}, 200*time.Millisecond)
	require.NoError(t, err)
	require.False(t, again.OK)
	require.Contains(t, again.Error, "no active recording")

	final, err := Send(ctx, socketPath, Request{Command: "transcript"}, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, final.OK)
	require.Equal(t, "the quick brown", final.Transcript)
	require.Empty(t, final.Pending)

	bogus, err := Send(ctx, socketPath, Request{Command: "rewind"}, 200*time.Millisecond)
	require.NoError(t, err)
	require.False(t, bogus.OK)
	require.Contains(t, bogus.Error, `unknown command: rewind`)
}

func TestServeRejectsMalformedRequests(t *testing.T) {
	stub := &sessionStub{state: "recording"}
	socketPath := startSessionServer(t, stub)

	sendRaw := func(raw string) Response {
		conn, err := net.Dial("unix", socketPath)
		require.NoError(t, err)
		defer conn.Close()

		_, err = conn.Write([]byte(raw))
		require.NoError(t, err)

		line, err := bufio.NewReader(conn).ReadBytes('\n')
		require.NoError(t, err)

		var resp Response
		require.NoError(t, json.Unmarshal(line, &resp))
		return resp
	}

	garbage := sendRaw("not-json\n")
	require.False(t, garbage.OK)
	require.Contains(t, garbage.Error, "decode request")

	blank := sendRaw("{}\n")
	require.False(t, blank.OK)
	require.Contains(t, blank.Error, "empty command")

	// Malformed traffic must not poison the session for well-formed clients.
	resp, err := Send(context.Background(), socketPath, Request{Command: "status"}, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, resp.OK)
}

func TestSendFailsOnBrokenServer(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "murmur.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	replies := make(chan string, 2)
	go func() {
		for raw := range replies {
			conn, acceptErr := listener.Accept()
			if acceptErr != nil {
				return
			}
			_, _ = bufio.NewReader(conn).ReadBytes('\n')
			if raw != "" {
				_, _ = conn.Write([]byte(raw))
			}
			_ = conn.Close()
		}
	}()
	defer close(replies)

	replies <- "not-json\n"
	_, err = Send(context.Background(), socketPath, Request{Command: "status"}, 200*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")

	// Hanging up without a reply reads as a decode failure too.
	replies <- ""
	_, err = Send(context.Background(), socketPath, Request{Command: "status"}, 200*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestProbeTracksSessionLifecycle(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "murmur.sock")
	ctx := context.Background()

	alive, err := Probe(ctx, socketPath, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)

	listener, listenErr := net.Listen("unix", socketPath)
	require.NoError(t, listenErr)

	serveCtx, cancel := context.WithCancel(ctx)
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(serveCtx, listener, HandlerFunc(func(_ context.Context, _ Request) Response {
			return Response{OK: true, State: "recording"}
		}))
	}()

	alive, err = Probe(ctx, socketPath, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, alive)

	cancel()
	require.NoError(t, <-serveDone)

	alive, err = Probe(ctx, socketPath, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)
}
