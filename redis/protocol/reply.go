/*
Package protocol 定义客户端读到的 RESP 回复及其编码。

parser 把服务端的字节流还原成这里的类型，client 发命令时也用它们编码：
  - BulkReply / NullBulkReply：批量字符串和空值（$-1，*-1 也归到这里）
  - MultiBulkReply：全部由批量字符串组成的列表，命令行就是这种格式
  - MultiRawReply：元素可以是任意回复的列表，CLUSTER SLOTS 返回的 "列表的列表" 由它表示
  - EmptyMultiBulkReply：空列表，集群没有分配槽时 CLUSTER SLOTS 返回它
  - StatusReply / OkReply / PongReply：状态回复，后两者是内容固定的快捷形式
  - IntReply：整数回复，槽号和端口都以它出现
  - StandardErrReply：服务端返回的错误，实现了 ErrorReply
*/
package protocol

import (
	"strconv"

	"github.com/CodingCaius/godis-slots/interface/redis"
)

var (
	CRLF = "\r\n"
)

// appendLine 写入 prefix + text + CRLF
func appendLine(buf []byte, prefix byte, text string) []byte {
	buf = append(buf, prefix)
	buf = append(buf, text...)
	return append(buf, CRLF...)
}

// appendBulk 写入一个批量字符串，nil 编码为 $-1
func appendBulk(buf []byte, arg []byte) []byte {
	if arg == nil {
		return append(buf, nullBulkBytes...)
	}
	buf = appendLine(buf, '$', strconv.Itoa(len(arg)))
	buf = append(buf, arg...)
	return append(buf, CRLF...)
}

/* ---- Bulk Reply ---- */

// BulkReply is a binary safe string, nil Arg encodes as a null bulk
type BulkReply struct {
	Arg []byte
}

func MakeBulkReply(arg []byte) *BulkReply {
	return &BulkReply{Arg: arg}
}

func (r *BulkReply) ToBytes() []byte {
	return appendBulk(make([]byte, 0, len(r.Arg)+16), r.Arg)
}

/* ---- Multi Bulk Reply ---- */

// MultiBulkReply is a list of bulk strings, the shape of every command line
type MultiBulkReply struct {
	Args [][]byte
}

func MakeMultiBulkReply(args [][]byte) *MultiBulkReply {
	return &MultiBulkReply{Args: args}
}

func (r *MultiBulkReply) ToBytes() []byte {
	size := 16
	for _, arg := range r.Args {
		size += len(arg) + 16
	}
	buf := appendLine(make([]byte, 0, size), '*', strconv.Itoa(len(r.Args)))
	for _, arg := range r.Args {
		buf = appendBulk(buf, arg)
	}
	return buf
}

/* ---- Multi Raw Reply ---- */

// MultiRawReply is a list whose items may be any reply, nested lists included
type MultiRawReply struct {
	Replies []redis.Reply
}

func MakeMultiRawReply(replies []redis.Reply) *MultiRawReply {
	return &MultiRawReply{Replies: replies}
}

func (r *MultiRawReply) ToBytes() []byte {
	buf := appendLine(nil, '*', strconv.Itoa(len(r.Replies)))
	for _, item := range r.Replies {
		buf = append(buf, item.ToBytes()...)
	}
	return buf
}

/* ---- Status Reply ---- */

// StatusReply stores a simple status string
type StatusReply struct {
	Status string
}

func MakeStatusReply(status string) *StatusReply {
	return &StatusReply{Status: status}
}

func (r *StatusReply) ToBytes() []byte {
	return appendLine(nil, '+', r.Status)
}

// IsOKReply reports whether reply is +OK, whichever type carries it
func IsOKReply(reply redis.Reply) bool {
	switch r := reply.(type) {
	case *OkReply:
		return true
	case *StatusReply:
		return r.Status == "OK"
	case nil:
		return false
	}
	return string(reply.ToBytes()) == "+OK\r\n"
}

/* ---- Int Reply ---- */

// IntReply stores an int64 number
type IntReply struct {
	Code int64
}

func MakeIntReply(code int64) *IntReply {
	return &IntReply{Code: code}
}

func (r *IntReply) ToBytes() []byte {
	return appendLine(nil, ':', strconv.FormatInt(r.Code, 10))
}

/* ---- Error Reply ---- */

// ErrorReply is a reply that is also an error
type ErrorReply interface {
	Error() string
	ToBytes() []byte
}

// StandardErrReply is an error sent by the server, Status holds the text after '-'
type StandardErrReply struct {
	Status string
}

func MakeErrReply(status string) *StandardErrReply {
	return &StandardErrReply{Status: status}
}

func (r *StandardErrReply) ToBytes() []byte {
	return appendLine(nil, '-', r.Status)
}

func (r *StandardErrReply) Error() string {
	return r.Status
}

// IsErrorReply reports whether reply encodes as a RESP error
func IsErrorReply(reply redis.Reply) bool {
	if reply == nil {
		return false
	}
	if _, ok := reply.(ErrorReply); ok {
		return true
	}
	b := reply.ToBytes()
	return len(b) > 0 && b[0] == '-'
}
