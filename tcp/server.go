package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CodingCaius/godis-slots/interface/tcp"
	"github.com/CodingCaius/godis-slots/lib/logger"
)

// tcp 服务器，clustertest 用它跑假的集群节点

type Config struct {
	Address string `yaml:"address"`
	// 同时存在的连接数上限，0 表示不限制
	MaxConnect uint32 `yaml:"max-connect"`
	// 连接空闲超过 Timeout 没有数据可读时断开，0 表示不限制
	Timeout time.Duration `yaml:"timeout"`
}

// 进程内所有服务器的客户端连接计数
var ClientCounter int32

// Listen 按配置监听地址，Address 的端口为 0 时由系统分配
func Listen(cfg *Config) (net.Listener, error) {
	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, err
	}
	logger.Debug(fmt.Sprintf("bind: %s, start listening...", listener.Addr().String()))
	return listener, nil
}

// idleConn 每次读之前刷新读超时
type idleConn struct {
	net.Conn
	timeout time.Duration
}

func (c *idleConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

// ListenAndServe 在 listener 上接受连接并交给 handler 处理，阻塞直到 closeChan 关闭或 Accept 出错。
// 返回前会关闭 listener 和 handler，并等待所有连接处理完毕
func ListenAndServe(cfg *Config, listener net.Listener, handler tcp.Handler, closeChan <-chan struct{}) {
	errCh := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		select {
		case <-closeChan:
			logger.Debug("get exit signal")
		case er := <-errCh:
			logger.Debug(fmt.Sprintf("accept error: %s", er.Error()))
		}
		logger.Debug("shutting down...")
		_ = listener.Close() // listener.Accept() will return err immediately
		_ = handler.Close()  // close connections
		close(stopped)
	}()

	ctx := context.Background()
	var wg sync.WaitGroup
	// 本服务器的连接数，MaxConnect 只限制这一个 listener
	var active int32
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("accept occurs temporary error: %v, retry in 5ms", err)
				time.Sleep(5 * time.Millisecond)
				continue
			}
			errCh <- err
			break
		}
		if cfg.MaxConnect > 0 && atomic.LoadInt32(&active) >= int32(cfg.MaxConnect) {
			logger.Warnf("reject %s: too many connections", conn.RemoteAddr().String())
			_ = conn.Close()
			continue
		}
		if cfg.Timeout > 0 {
			conn = &idleConn{Conn: conn, timeout: cfg.Timeout}
		}
		// 处理连接
		logger.Debug("accept link")
		atomic.AddInt32(&ClientCounter, 1)
		atomic.AddInt32(&active, 1)
		wg.Add(1)
		go func() {
			defer func() {
				wg.Done()
				atomic.AddInt32(&active, -1)
				atomic.AddInt32(&ClientCounter, -1)
			}()
			handler.Handle(ctx, conn)
		}()
	}
	<-stopped
	wg.Wait()
}
