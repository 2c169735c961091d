package protocol

import "github.com/CodingCaius/godis-slots/interface/redis"

// 固定内容的回复，预先序列化好避免重复分配

var (
	nullBulkBytes       = []byte("$-1\r\n")
	emptyMultiBulkBytes = []byte("*0\r\n")
	okBytes             = []byte("+OK\r\n")
	pongBytes           = []byte("+PONG\r\n")
)

// NullBulkReply is empty string
type NullBulkReply struct{}

// MakeNullBulkReply creates a new NullBulkReply
func MakeNullBulkReply() *NullBulkReply {
	return &NullBulkReply{}
}

// ToBytes marshal redis.Reply
func (r *NullBulkReply) ToBytes() []byte {
	return nullBulkBytes
}

// EmptyMultiBulkReply is a empty list
type EmptyMultiBulkReply struct{}

// MakeEmptyMultiBulkReply creates EmptyMultiBulkReply
func MakeEmptyMultiBulkReply() *EmptyMultiBulkReply {
	return &EmptyMultiBulkReply{}
}

// ToBytes marshal redis.Reply
func (r *EmptyMultiBulkReply) ToBytes() []byte {
	return emptyMultiBulkBytes
}

// IsEmptyMultiBulkReply returns true if the given reply is an empty list
func IsEmptyMultiBulkReply(reply redis.Reply) bool {
	_, ok := reply.(*EmptyMultiBulkReply)
	return ok
}

// OkReply is +OK
type OkReply struct{}

var theOkReply = new(OkReply)

// MakeOkReply returns a ok protocol
func MakeOkReply() *OkReply {
	return theOkReply
}

// ToBytes marshal redis.Reply
func (r *OkReply) ToBytes() []byte {
	return okBytes
}

// PongReply is +PONG
type PongReply struct{}

// MakePongReply returns a pong reply
func MakePongReply() *PongReply {
	return &PongReply{}
}

// ToBytes marshal redis.Reply
func (r *PongReply) ToBytes() []byte {
	return pongBytes
}
