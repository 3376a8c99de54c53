package ipc_test

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/ipc"
)

func serve(t *testing.T, handler ipc.Handler) string {
	t.Helper()

	// Unix socket paths are short; TempDir can exceed the limit.
	dir, err := os.MkdirTemp("", "ipc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "j.sock")

	srv, err := ipc.Listen(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, srv.Serve(ctx, handler))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		srv.Close()
	})

	return path
}

func TestRoundTrip(t *testing.T) {
	var (
		mu  sync.Mutex
		got []ipc.ControlMessage
	)
	path := serve(t, func(_ context.Context, m ipc.ControlMessage) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, m)
		if m.Cmd == "bogus" {
			return errors.New("unknown command")
		}
		return nil
	})

	require.NoError(t, ipc.Send(path, ipc.ControlMessage{Cmd: ipc.CmdTrigger}))
	require.NoError(t, ipc.Send(path, ipc.ControlMessage{Cmd: ipc.CmdSay, Text: "open google"}))

	err := ipc.Send(path, ipc.ControlMessage{Cmd: "bogus"})
	require.Error(t, err)
	assert.Equal(t, "unknown command", err.Error())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []ipc.ControlMessage{
		{Cmd: "trigger"},
		{Cmd: "say", Text: "open google"},
		{Cmd: "bogus"},
	}, got)
}

func TestMalformed(t *testing.T) {
	path := serve(t, func(context.Context, ipc.ControlMessage) error { return nil })

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("{not json\n"))
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	buf := make([]byte, 128)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "malformed message")
}

func TestStaleSocketReplaced(t *testing.T) {
	dir, err := os.MkdirTemp("", "ipc")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "j.sock")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	srv, err := ipc.Listen(path)
	require.NoError(t, err)
	require.NoError(t, srv.Close())

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSendNoDaemon(t *testing.T) {
	err := ipc.Send(filepath.Join(t.TempDir(), "none.sock"), ipc.ControlMessage{Cmd: ipc.CmdQuit})
	assert.Error(t, err)
}
