package protocol

import (
	"testing"

	"github.com/CodingCaius/godis-slots/interface/redis"
	"github.com/stretchr/testify/assert"
)

func TestMultiRawReplyToBytes(t *testing.T) {
	reply := MakeMultiRawReply([]redis.Reply{
		MakeIntReply(0),
		MakeIntReply(8191),
		MakeMultiRawReply([]redis.Reply{
			MakeBulkReply([]byte("10.0.0.1")),
			MakeIntReply(7000),
		}),
	})
	expected := "*3\r\n:0\r\n:8191\r\n*2\r\n$8\r\n10.0.0.1\r\n:7000\r\n"
	assert.Equal(t, expected, string(reply.ToBytes()))
}

func TestMultiBulkReplyToBytes(t *testing.T) {
	reply := MakeMultiBulkReply([][]byte{[]byte("CLUSTER"), nil, []byte("SLOTS")})
	assert.Equal(t, "*3\r\n$7\r\nCLUSTER\r\n$-1\r\n$5\r\nSLOTS\r\n", string(reply.ToBytes()))
}

func TestReplyPredicates(t *testing.T) {
	assert.True(t, IsOKReply(MakeOkReply()))
	assert.True(t, IsOKReply(MakeStatusReply("OK")))
	assert.False(t, IsOKReply(MakePongReply()))

	assert.True(t, IsErrorReply(MakeErrReply("ERR cluster support disabled")))
	assert.False(t, IsErrorReply(MakeIntReply(1)))
	assert.False(t, IsErrorReply(nil))

	assert.True(t, IsEmptyMultiBulkReply(MakeEmptyMultiBulkReply()))
	assert.False(t, IsEmptyMultiBulkReply(MakeMultiBulkReply(nil)))
}

func TestFixedReplies(t *testing.T) {
	assert.Equal(t, "$-1\r\n", string(MakeNullBulkReply().ToBytes()))
	assert.Equal(t, "$-1\r\n", string(MakeBulkReply(nil).ToBytes()))
	assert.Equal(t, "*0\r\n", string(MakeEmptyMultiBulkReply().ToBytes()))
	assert.Equal(t, "+PONG\r\n", string(MakePongReply().ToBytes()))
	assert.Equal(t, "-ERR x\r\n", string(MakeErrReply("ERR x").ToBytes()))
	assert.Equal(t, "ERR x", MakeErrReply("ERR x").Error())
}

func TestBulkEncoding(t *testing.T) {
	assert.Equal(t, "$0\r\n\r\n", string(MakeBulkReply([]byte{}).ToBytes()))
	assert.Equal(t, "$4\r\na\r\nb\r\n", string(MakeBulkReply([]byte("a\r\nb")).ToBytes()))
	assert.Equal(t, "*0\r\n", string(MakeMultiBulkReply(nil).ToBytes()))
	assert.Equal(t, ":-7\r\n", string(MakeIntReply(-7).ToBytes()))
	assert.False(t, IsOKReply(nil))
	assert.False(t, IsOKReply(MakeBulkReply([]byte("OK"))))

	// the shared null bulk bytes are never handed out for mutation
	b := MakeBulkReply(nil).ToBytes()
	b[0] = 'x'
	assert.Equal(t, "$-1\r\n", string(MakeBulkReply(nil).ToBytes()))
}
