package redis

// Reply 是 RESP 协议中一条回复的抽象，服务端回复和客户端收到的回复都实现它
type Reply interface {
	ToBytes() []byte
}
