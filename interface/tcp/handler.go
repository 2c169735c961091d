package tcp

import (
	"context"
	"net"
)

// HandleFunc represents application handler function
type HandleFunc func(ctx context.Context, conn net.Conn)

// Handler 代表基于 tcp 的应用服务器
type Handler interface {
	Handle(ctx context.Context, conn net.Conn)
	Close() error
}
