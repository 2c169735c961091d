package connection

import (
	"net"
	"sync"
	"time"
)

// Connection 表示服务端持有的一个客户端连接，测试用的假集群节点用它回写回复
type Connection struct {
	// 表示底层的网络连接
	conn net.Conn

	// 用于等待数据发送完成，关闭连接时确保所有数据都已发送
	sendingData sync.WaitGroup

	// 服务器发送响应时锁定
	mu sync.Mutex

	// 客户端通过 AUTH 提交的密码
	password string
}

// NewConn 用于创建一个新的 Connection 实例
func NewConn(conn net.Conn) *Connection {
	return &Connection{
		conn: conn,
	}
}

// RemoteAddr 返回远程网络地址
func (c *Connection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close 断开与客户端的连接，最多等待 timeout 让在途的写入完成
func (c *Connection) Close() error {
	c.waitWithTimeout(10 * time.Second)
	return c.conn.Close()
}

func (c *Connection) waitWithTimeout(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		c.sendingData.Wait()
		close(done)
	}()
	select {
	case <-done:
		return false
	case <-time.After(timeout):
		return true
	}
}

// Write 通过 TCP 连接向客户端发送响应
func (c *Connection) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	c.sendingData.Add(1)
	defer c.sendingData.Done()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Write(b)
}

// SetPassword 存储连接的密码
func (c *Connection) SetPassword(password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.password = password
}

// GetPassword 返回存储的密码
func (c *Connection) GetPassword() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.password
}
