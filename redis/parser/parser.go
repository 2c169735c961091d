package parser

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"runtime/debug"
	"strconv"

	"github.com/CodingCaius/godis-slots/interface/redis"
	"github.com/CodingCaius/godis-slots/lib/logger"
	"github.com/CodingCaius/godis-slots/redis/protocol"
)

// redis 协议解析器
// ReadReply 从 bufio.Reader 中同步读取一条完整的回复，客户端收到的回复可以任意嵌套，
// 例如 CLUSTER SLOTS 的回复是 "列表的列表"，元素里既有整数也有字符串。
// ParseStream 等函数在此基础上把结果以 Payload 的形式通过通道传递，服务端用它来读取命令。

// 如 "*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\value\r\n" 将被还原为 ['SET', 'key', 'value']。

type Payload struct {
	Data redis.Reply
	Err  error
}

const (
	// 与 redis 的 proto-max-bulk-len 默认值一致
	maxBulkLen = 512 << 20
	// 单个列表允许的最大元素个数
	maxArrayLen = 1 << 20
	// 预分配的上限，实际元素按需追加
	arrayPrealloc = 1024
)

// ProtocolError 表示收到的数据不符合 RESP 协议
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Msg
}

// IsProtocolError reports whether err was caused by malformed RESP data
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// ParseStream reads data from io.Reader and send payloads through channel
func ParseStream(reader io.Reader) <-chan *Payload {
	ch := make(chan *Payload)
	go parse0(reader, ch)
	return ch
}

// 从一个字节切片中解析 Redis 协议数据，并返回解析结果。
func ParseBytes(data []byte) ([]redis.Reply, error) {
	reader := bufio.NewReader(bytes.NewReader(data))
	var results []redis.Reply
	for {
		reply, err := ReadReply(reader)
		if err == io.EOF {
			return results, nil
		}
		if err != nil {
			return nil, err
		}
		results = append(results, reply)
	}
}

// 从一个字节切片中解析第一个 Redis 协议数据，并返回该数据及其可能的错误
func ParseOne(data []byte) (redis.Reply, error) {
	reply, err := ReadReply(bufio.NewReader(bytes.NewReader(data)))
	if err == io.EOF {
		return nil, errors.New("no protocol")
	}
	return reply, err
}

// 从输入流中持续读取回复并通过通道发送出去。
// 协议错误不会中断解析，读错误（包括 EOF）会关闭通道
func parse0(rawReader io.Reader, ch chan<- *Payload) {
	defer func() {
		if err := recover(); err != nil {
			logger.Error(err, string(debug.Stack()))
		}
	}()
	reader := bufio.NewReader(rawReader)
	for {
		reply, err := ReadReply(reader)
		if err != nil {
			ch <- &Payload{Err: err}
			if IsProtocolError(err) {
				continue
			}
			close(ch)
			return
		}
		ch <- &Payload{Data: reply}
	}
}

// ReadReply reads exactly one reply from reader.
// It returns io.EOF only when the stream ends before any byte of the reply.
func ReadReply(reader *bufio.Reader) (redis.Reply, error) {
	line, err := readLine(reader)
	if err != nil {
		return nil, err
	}
	return parseLine(line, reader)
}

// 读取一行并去掉 CRLF，跳过空行（复制流量中会出现空行）
func readLine(reader *bufio.Reader) ([]byte, error) {
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(line) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		length := len(line)
		if length <= 2 || line[length-2] != '\r' {
			continue
		}
		return line[:length-2], nil
	}
}

func parseLine(line []byte, reader *bufio.Reader) (redis.Reply, error) {
	switch line[0] {
	case '+':
		return protocol.MakeStatusReply(string(line[1:])), nil
	case '-':
		return protocol.MakeErrReply(string(line[1:])), nil
	case ':':
		value, err := strconv.ParseInt(string(line[1:]), 10, 64)
		if err != nil {
			return nil, &ProtocolError{Msg: "illegal number " + string(line[1:])}
		}
		return protocol.MakeIntReply(value), nil
	case '$':
		return parseBulkString(line, reader)
	case '*':
		return parseArray(line, reader)
	default:
		args := bytes.Split(line, []byte{' '})
		return protocol.MakeMultiBulkReply(args), nil
	}
}

// 解析字符串类型
func parseBulkString(header []byte, reader *bufio.Reader) (redis.Reply, error) {
	strLen, err := strconv.ParseInt(string(header[1:]), 10, 64)
	if err != nil || strLen < -1 {
		return nil, &ProtocolError{Msg: "illegal bulk string header: " + string(header)}
	} else if strLen == -1 {
		return protocol.MakeNullBulkReply(), nil
	} else if strLen > maxBulkLen {
		return nil, &ProtocolError{Msg: "bulk string too long: " + string(header[1:])}
	}
	body := make([]byte, strLen+2)
	_, err = io.ReadFull(reader, body)
	if err != nil {
		return nil, unexpected(err)
	}
	return protocol.MakeBulkReply(body[:len(body)-2]), nil
}

// 解析列表，元素递归解析。
// 全部元素都是字符串时返回 MultiBulkReply（命令行就是这种格式），否则返回 MultiRawReply
func parseArray(header []byte, reader *bufio.Reader) (redis.Reply, error) {
	n, err := strconv.ParseInt(string(header[1:]), 10, 64)
	if err != nil || n < -1 {
		return nil, &ProtocolError{Msg: "illegal array header " + string(header[1:])}
	} else if n == -1 {
		return protocol.MakeNullBulkReply(), nil
	} else if n == 0 {
		return protocol.MakeEmptyMultiBulkReply(), nil
	} else if n > maxArrayLen {
		return nil, &ProtocolError{Msg: "array too long: " + string(header[1:])}
	}
	replies := make([]redis.Reply, 0, min(n, arrayPrealloc))
	allBulk := true
	for i := int64(0); i < n; i++ {
		line, err := readLine(reader)
		if err != nil {
			return nil, unexpected(err)
		}
		item, err := parseLine(line, reader)
		if err != nil {
			return nil, err
		}
		if _, ok := item.(*protocol.BulkReply); !ok {
			allBulk = false
		}
		replies = append(replies, item)
	}
	if !allBulk {
		return protocol.MakeMultiRawReply(replies), nil
	}
	args := make([][]byte, len(replies))
	for i, item := range replies {
		args[i] = item.(*protocol.BulkReply).Arg
	}
	return protocol.MakeMultiBulkReply(args), nil
}

// 回复读到一半时遇到 EOF 不是正常结束
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
