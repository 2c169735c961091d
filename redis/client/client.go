package client

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/CodingCaius/godis-slots/interface/redis"
	"github.com/CodingCaius/godis-slots/lib/logger"
	"github.com/CodingCaius/godis-slots/lib/utils"
	"github.com/CodingCaius/godis-slots/redis/parser"
	"github.com/CodingCaius/godis-slots/redis/protocol"
)

// ErrClosed is returned by Call after Close
var ErrClosed = errors.New("client closed")

const (
	defaultDialTimeout = time.Second
	defaultIOTimeout   = time.Second
)

// Client 是到单个 redis 节点的同步客户端。
// 连接在第一次调用时才建立，连接出错后会被丢弃，下一次调用重新拨号。
// 同一时刻只有一个请求在途，调用方不需要额外加锁
type Client struct {
	addr     string
	host     string
	password string

	dialTimeout time.Duration
	ioTimeout   time.Duration

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	closed bool
}

// Option configures a Client
type Option func(*Client)

// WithPassword makes the client send AUTH right after connecting
func WithPassword(password string) Option {
	return func(c *Client) {
		c.password = password
	}
}

// WithTimeouts sets dial and per-request read/write timeouts
func WithTimeouts(dial, io time.Duration) Option {
	return func(c *Client) {
		if dial > 0 {
			c.dialTimeout = dial
		}
		if io > 0 {
			c.ioTimeout = io
		}
	}
}

// MakeClient creates a client for addr ("host:port"), it does not connect yet
func MakeClient(addr string, opts ...Option) *Client {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	c := &Client{
		addr:        addr,
		host:        host,
		dialTimeout: defaultDialTimeout,
		ioTimeout:   defaultIOTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Host returns the host part of the address used to reach the node
func (c *Client) Host() string {
	return c.host
}

// Addr returns the address the client dials
func (c *Client) Addr() string {
	return c.addr
}

// Call sends cmdLine and waits for the reply.
// Error replies from the server are returned as *CommandError.
func (c *Client) Call(ctx context.Context, cmdLine [][]byte) (redis.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, &ConnectionError{Addr: c.addr, Err: ErrClosed}
	}
	if c.conn == nil {
		if err := c.connect(ctx); err != nil {
			return nil, err
		}
	}
	reply, err := c.roundTrip(ctx, cmdLine)
	if err != nil {
		return nil, err
	}
	if errReply, ok := reply.(protocol.ErrorReply); ok {
		return nil, &CommandError{Addr: c.addr, Command: utils.CmdString(cmdLine), Reply: errReply.Error()}
	}
	return reply, nil
}

// Send is Call without a context, failures are turned into error replies
func (c *Client) Send(cmdLine [][]byte) redis.Reply {
	reply, err := c.Call(context.Background(), cmdLine)
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}
	return reply
}

// Close 关闭底层连接，之后的调用都会失败
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

// connect 建立连接，如果配置了密码则先完成 AUTH。调用方持有 c.mu
func (c *Client) connect(ctx context.Context) error {
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return &CannotConnectError{Addr: c.addr, Err: err}
	}
	logger.Debugf("connected to %s", c.addr)
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	if c.password == "" {
		return nil
	}
	authCmd := utils.ToCmdLine("AUTH", c.password)
	reply, err := c.roundTrip(ctx, authCmd)
	if err != nil {
		return err
	}
	if !protocol.IsOKReply(reply) {
		c.drop()
		return &CommandError{Addr: c.addr, Command: "AUTH", Reply: string(reply.ToBytes())}
	}
	return nil
}

// roundTrip 写入一条命令并读取一条回复，任何 I/O 或协议错误都会丢弃当前连接
func (c *Client) roundTrip(ctx context.Context, cmdLine [][]byte) (redis.Reply, error) {
	deadline := time.Now().Add(c.ioTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn := c.conn
	_ = conn.SetDeadline(deadline)
	// 取消 ctx 时让阻塞中的读写立即返回
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	req := protocol.MakeMultiBulkReply(cmdLine)
	if _, err := conn.Write(req.ToBytes()); err != nil {
		c.drop()
		return nil, &ConnectionError{Addr: c.addr, Err: contextErr(ctx, err)}
	}
	reply, err := parser.ReadReply(c.reader)
	if err != nil {
		c.drop()
		return nil, &ConnectionError{Addr: c.addr, Err: contextErr(ctx, err)}
	}
	return reply, nil
}

func (c *Client) drop() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.reader = nil
}

// 如果是 ctx 被取消导致的超时，返回 ctx 的错误，便于调用方识别
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
