package tcp

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoHandler struct {
	mu     sync.Mutex
	conns  []net.Conn
	closed bool
}

func (h *echoHandler) Handle(ctx context.Context, conn net.Conn) {
	h.mu.Lock()
	h.conns = append(h.conns, conn)
	h.mu.Unlock()
	defer conn.Close()
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		_, _ = conn.Write([]byte(line))
	}
}

func (h *echoHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, conn := range h.conns {
		_ = conn.Close()
	}
	return nil
}

func TestListenAndServe(t *testing.T) {
	listener, err := Listen(&Config{Address: "127.0.0.1:0"})
	require.NoError(t, err)
	handler := &echoHandler{}
	closeChan := make(chan struct{})
	done := make(chan struct{})
	go func() {
		ListenAndServe(&Config{}, listener, handler, closeChan)
		close(done)
	}()

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("ping\n"))
	require.NoError(t, err)
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "ping\n", line)

	close(closeChan)
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	handler.mu.Lock()
	assert.True(t, handler.closed)
	handler.mu.Unlock()
}

// serve runs an echo server until the test ends
func serve(t *testing.T, cfg *Config) string {
	listener, err := Listen(cfg)
	require.NoError(t, err)
	closeChan := make(chan struct{})
	done := make(chan struct{})
	go func() {
		ListenAndServe(cfg, listener, &echoHandler{}, closeChan)
		close(done)
	}()
	t.Cleanup(func() {
		close(closeChan)
		<-done
	})
	return listener.Addr().String()
}

func echo(conn net.Conn, reader *bufio.Reader, line string) (string, error) {
	_ = conn.SetDeadline(time.Now().Add(3 * time.Second))
	if _, err := conn.Write([]byte(line)); err != nil {
		return "", err
	}
	return reader.ReadString('\n')
}

func TestListenAndServeMaxConnect(t *testing.T) {
	addr := serve(t, &Config{Address: "127.0.0.1:0", MaxConnect: 1})

	first, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer first.Close()
	line, err := echo(first, bufio.NewReader(first), "one\n")
	require.NoError(t, err)
	assert.Equal(t, "one\n", line)

	second, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer second.Close()
	_, err = echo(second, bufio.NewReader(second), "two\n")
	assert.Error(t, err)

	// the first connection is still served
	line, err = echo(first, bufio.NewReader(first), "three\n")
	require.NoError(t, err)
	assert.Equal(t, "three\n", line)
}

func TestListenAndServeIdleTimeout(t *testing.T) {
	addr := serve(t, &Config{Address: "127.0.0.1:0", Timeout: 100 * time.Millisecond})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)
	line, err := echo(conn, reader, "ping\n")
	require.NoError(t, err)
	assert.Equal(t, "ping\n", line)

	// stay silent until the server gives up on the connection
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, err = reader.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)
}

func TestClientCounter(t *testing.T) {
	before := atomic.LoadInt32(&ClientCounter)
	addr := serve(t, &Config{Address: "127.0.0.1:0"})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, err = echo(conn, bufio.NewReader(conn), "hi\n")
	require.NoError(t, err)
	assert.Equal(t, before+1, atomic.LoadInt32(&ClientCounter))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&ClientCounter) == before
	}, 3*time.Second, 10*time.Millisecond)
}
