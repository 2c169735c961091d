package cluster

import (
	"strconv"
	"strings"
)

// 节点键是路由表的主键，格式为 "host:port"

// BuildNodeKey joins host and port into a node key. Values are not validated.
func BuildNodeKey(host string, port int64) string {
	return host + ":" + strconv.FormatInt(port, 10)
}

// SplitNodeKey splits a node key at its last colon, so IPv6 hosts keep their colons
func SplitNodeKey(nodeKey string) (host string, port string) {
	pos := strings.LastIndex(nodeKey, ":")
	if pos < 0 {
		return nodeKey, ""
	}
	return nodeKey[:pos], nodeKey[pos+1:]
}

// stringifyNodeKey 构造节点键。
// 集群处于 down 状态时，被查询的节点可能报告不出自己的 ip，此时用连接它时使用的 host 代替
func stringifyNodeKey(ip string, port int64, defaultIP string) string {
	if ip == "" {
		ip = defaultIP
	}
	return BuildNodeKey(ip, port)
}
