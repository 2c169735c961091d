package cluster

import (
	"strings"

	"github.com/sigurn/crc16"
)

// SlotCount is the number of hash slots in a redis cluster
const SlotCount = 16384

// getPartitionKey 提取键中的哈希标签，{} 之间为空时使用整个键
func getPartitionKey(key string) string {
	beg := strings.Index(key, "{")
	if beg == -1 {
		return key
	}
	end := strings.Index(key[beg+1:], "}")
	if end <= 0 {
		return key
	}
	return key[beg+1 : beg+1+end]
}

// KeySlot returns the hash slot of key: CRC16 (XMODEM) of its hash tag modulo SlotCount
func KeySlot(key string) int {
	partitionKey := getPartitionKey(key)
	return int(checksum([]byte(partitionKey)) % SlotCount)
}

var crc16Table = crc16.MakeTable(crc16.CRC16_XMODEM)

// checksum is CRC16-CCITT (XMODEM): polynomial 0x1021, initial value 0
func checksum(data []byte) uint16 {
	return crc16.Checksum(data, crc16Table)
}
