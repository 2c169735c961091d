package client

import "fmt"

// 客户端可能返回的三类错误，集群层据此判断是否换一个节点重试

// CannotConnectError means the node could not be reached at all
type CannotConnectError struct {
	Addr string
	Err  error
}

func (e *CannotConnectError) Error() string {
	return fmt.Sprintf("cannot connect to %s: %v", e.Addr, e.Err)
}

func (e *CannotConnectError) Unwrap() error {
	return e.Err
}

// ConnectionError means an established connection broke while sending or reading
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// CommandError 表示服务端对命令返回了错误回复
type CommandError struct {
	Addr    string
	Command string
	Reply   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s replied to %q: %s", e.Addr, e.Command, e.Reply)
}
