// Package clustertest runs fake cluster nodes on loopback TCP so that slot
// discovery can be exercised against a real RESP exchange.
package clustertest

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/CodingCaius/godis-slots/interface/redis"
	"github.com/CodingCaius/godis-slots/lib/logger"
	"github.com/CodingCaius/godis-slots/redis/connection"
	"github.com/CodingCaius/godis-slots/redis/parser"
	"github.com/CodingCaius/godis-slots/redis/protocol"
	"github.com/CodingCaius/godis-slots/tcp"
)

// Addr 是 CLUSTER SLOTS 回复中的一个地址条目
type Addr struct {
	IP   string
	Port int64
	// 可选，真实的 redis 会在端口后附带节点 ID
	ID string
}

// Entry 是 CLUSTER SLOTS 回复中的一项，第一个地址是主节点，其余是从节点
type Entry struct {
	First int64
	Last  int64
	Addrs []Addr
}

// SlotsReply builds a CLUSTER SLOTS reply the way a redis node encodes it
func SlotsReply(entries ...Entry) redis.Reply {
	if len(entries) == 0 {
		return protocol.MakeEmptyMultiBulkReply()
	}
	items := make([]redis.Reply, 0, len(entries))
	for _, entry := range entries {
		fields := []redis.Reply{
			protocol.MakeIntReply(entry.First),
			protocol.MakeIntReply(entry.Last),
		}
		for _, addr := range entry.Addrs {
			addrFields := []redis.Reply{
				protocol.MakeBulkReply([]byte(addr.IP)),
				protocol.MakeIntReply(addr.Port),
			}
			if addr.ID != "" {
				addrFields = append(addrFields, protocol.MakeBulkReply([]byte(addr.ID)))
			}
			fields = append(fields, protocol.MakeMultiRawReply(addrFields))
		}
		items = append(items, protocol.MakeMultiRawReply(fields))
	}
	return protocol.MakeMultiRawReply(items)
}

// Node is a fake cluster member answering PING, AUTH and CLUSTER SLOTS
type Node struct {
	listener net.Listener
	closing  chan struct{}
	done     chan struct{}
	handler  *handler
	once     sync.Once
}

type options struct {
	password string
	server   tcp.Config
}

// Option configures a Node
type Option func(*options)

// WithPassword makes the node require AUTH before CLUSTER SLOTS
func WithPassword(password string) Option {
	return func(o *options) {
		o.password = password
	}
}

// WithIdleTimeout makes the node drop connections that stay silent for timeout
func WithIdleTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.server.Timeout = timeout
	}
}

// WithMaxConnect caps the number of connections the node serves at once
func WithMaxConnect(limit uint32) Option {
	return func(o *options) {
		o.server.MaxConnect = limit
	}
}

// NewNode starts a node on 127.0.0.1 with a random port.
// A nil slots reply makes the node answer like a server with cluster support disabled.
func NewNode(slots redis.Reply, opts ...Option) (*Node, error) {
	o := &options{server: tcp.Config{Address: "127.0.0.1:0"}}
	for _, opt := range opts {
		opt(o)
	}
	listener, err := tcp.Listen(&o.server)
	if err != nil {
		return nil, err
	}
	h := &handler{password: o.password, slots: slots, calls: make(map[string]int)}
	n := &Node{
		listener: listener,
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
		handler:  h,
	}
	go func() {
		tcp.ListenAndServe(&o.server, listener, h, n.closing)
		close(n.done)
	}()
	return n, nil
}

// Addr returns "127.0.0.1:port"
func (n *Node) Addr() string {
	return n.listener.Addr().String()
}

// SetSlots replaces the CLUSTER SLOTS reply
func (n *Node) SetSlots(slots redis.Reply) {
	n.handler.mu.Lock()
	n.handler.slots = slots
	n.handler.mu.Unlock()
}

// Calls returns how many times cmd (e.g. "cluster slots") was received
func (n *Node) Calls(cmd string) int {
	n.handler.mu.Lock()
	defer n.handler.mu.Unlock()
	return n.handler.calls[strings.ToLower(cmd)]
}

// Close stops the node and waits until every connection is closed
func (n *Node) Close() error {
	n.once.Do(func() {
		close(n.closing)
	})
	<-n.done
	return nil
}

type handler struct {
	password string

	mu    sync.Mutex
	slots redis.Reply
	calls map[string]int

	// 由 mu 保护
	activeConn map[*connection.Connection]struct{}
	closed     bool
}

func (h *handler) Handle(ctx context.Context, conn net.Conn) {
	client := connection.NewConn(conn)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	if h.activeConn == nil {
		h.activeConn = make(map[*connection.Connection]struct{})
	}
	h.activeConn[client] = struct{}{}
	h.mu.Unlock()
	logger.Debugf("accept %s", client.RemoteAddr())

	ch := parser.ParseStream(conn)
	defer func() {
		h.mu.Lock()
		delete(h.activeConn, client)
		h.mu.Unlock()
		_ = client.Close()
		// 关闭连接后解析协程会读到错误并关闭通道
		go func() {
			for range ch {
			}
		}()
	}()

	for payload := range ch {
		if payload.Err != nil {
			if payload.Err == io.EOF || !parser.IsProtocolError(payload.Err) {
				return
			}
			_, _ = client.Write(protocol.MakeErrReply(payload.Err.Error()).ToBytes())
			continue
		}
		cmdLine, ok := payload.Data.(*protocol.MultiBulkReply)
		if !ok || len(cmdLine.Args) == 0 {
			logger.Error("require multi bulk protocol")
			continue
		}
		reply, quit := h.exec(client, cmdLine.Args)
		if _, err := client.Write(reply.ToBytes()); err != nil || quit {
			return
		}
	}
}

func (h *handler) exec(client *connection.Connection, args [][]byte) (redis.Reply, bool) {
	name := strings.ToLower(string(args[0]))
	if name == "cluster" && len(args) > 1 {
		name += " " + strings.ToLower(string(args[1]))
	}
	h.mu.Lock()
	h.calls[name]++
	slots := h.slots
	h.mu.Unlock()

	switch name {
	case "ping":
		return protocol.MakePongReply(), false
	case "quit":
		return protocol.MakeOkReply(), true
	case "auth":
		if len(args) != 2 {
			return protocol.MakeErrReply("ERR wrong number of arguments for 'auth' command"), false
		}
		if h.password == "" {
			return protocol.MakeErrReply("ERR Client sent AUTH, but no password is set"), false
		}
		if string(args[1]) != h.password {
			return protocol.MakeErrReply("ERR invalid password"), false
		}
		client.SetPassword(string(args[1]))
		return protocol.MakeOkReply(), false
	}
	if h.password != "" && client.GetPassword() != h.password {
		return protocol.MakeErrReply("NOAUTH Authentication required."), false
	}
	if name == "cluster slots" {
		if slots == nil {
			return protocol.MakeErrReply("ERR This instance has cluster support disabled"), false
		}
		return slots, false
	}
	return protocol.MakeErrReply(fmt.Sprintf("ERR unknown command '%s'", string(args[0]))), false
}

func (h *handler) Close() error {
	h.mu.Lock()
	h.closed = true
	conns := make([]*connection.Connection, 0, len(h.activeConn))
	for client := range h.activeConn {
		conns = append(conns, client)
	}
	h.mu.Unlock()
	for _, client := range conns {
		_ = client.Close()
	}
	return nil
}
