// Package cluster discovers which node of a redis cluster serves which hash slots.
//
// Load asks candidate nodes one by one for CLUSTER SLOTS and returns the first
// non-empty answer as a Topology. Nodes that cannot be reached, drop the
// connection or reject the command are skipped; any other failure is returned
// to the caller unchanged.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/CodingCaius/godis-slots/interface/redis"
	"github.com/CodingCaius/godis-slots/lib/logger"
	"github.com/CodingCaius/godis-slots/lib/utils"
	"github.com/CodingCaius/godis-slots/redis/client"
	"github.com/CodingCaius/godis-slots/redis/protocol"
	"github.com/openzipkin/zipkin-go/idgenerator"
	"go.uber.org/multierr"
)

// CmdLine is alias for [][]byte, represents a command line
type CmdLine = [][]byte

// Node is a cluster member that can be asked for the slot layout
type Node interface {
	// Call sends a command and waits for the reply. Failures are reported as
	// *client.CannotConnectError, *client.ConnectionError or *client.CommandError.
	Call(ctx context.Context, cmdLine CmdLine) (redis.Reply, error)
	// Host is the host used to reach the node
	Host() string
}

// ErrCannotConnect matches the error Load returns when no candidate answered usefully
var ErrCannotConnect = errors.New("redis client could not connect to any cluster nodes")

// CannotConnectError is returned by Load after every candidate failed or
// reported an empty slot layout.
type CannotConnectError struct {
	causes error
}

func (e *CannotConnectError) Error() string {
	return ErrCannotConnect.Error()
}

// Is makes errors.Is(err, ErrCannotConnect) hold
func (e *CannotConnectError) Is(target error) bool {
	return target == ErrCannotConnect
}

// Causes returns why each candidate was skipped, in candidate order
func (e *CannotConnectError) Causes() []error {
	return multierr.Errors(e.causes)
}

// FormatError 表示 CLUSTER SLOTS 的回复不符合约定的格式，属于致命错误
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string {
	return "malformed CLUSTER SLOTS reply: " + e.Msg
}

var clusterSlotsCmd = utils.ToCmdLine("CLUSTER", "SLOTS")

// 每次发现过程用一个 id 串起所有日志
var passIDGenerator = idgenerator.NewRandom64()

type fetchState uint8

const (
	// 节点给出了回复，拓扑可能为空
	fetchAnswered fetchState = iota
	// 节点不可用，应该换下一个节点
	fetchSkipped
)

// fetchResult 是查询单个节点的结果
type fetchResult struct {
	state    fetchState
	topology *Topology
	// 节点被跳过的原因
	cause error
}

// Load asks each node in order for CLUSTER SLOTS and returns the first
// non-empty topology; later nodes are not contacted. If every node fails with
// a connection or command error, or answers with no slots, Load returns a
// *CannotConnectError. Other errors abort the pass and are returned as-is.
func Load(ctx context.Context, nodes []Node) (*Topology, error) {
	log := logger.WithFields(logger.Fields{
		"pass":       passIDGenerator.TraceID().String(),
		"candidates": len(nodes),
	})
	var causes error
	for i, node := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := fetchSlotInfo(ctx, node)
		if err != nil {
			log.WithField("host", node.Host()).Errorf("slot discovery aborted: %v", err)
			return nil, err
		}
		switch result.state {
		case fetchSkipped:
			log.WithField("host", node.Host()).Warnf("skip candidate %d: %v", i, result.cause)
			causes = multierr.Append(causes, result.cause)
		case fetchAnswered:
			if !result.topology.Empty() {
				log.WithField("host", node.Host()).Debugf("loaded %d nodes from candidate %d", result.topology.Len(), i)
				return result.topology, nil
			}
			log.WithField("host", node.Host()).Debugf("candidate %d reported no slots", i)
			causes = multierr.Append(causes, fmt.Errorf("%s reported no slots", node.Host()))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Error(ErrCannotConnect.Error())
	return nil, &CannotConnectError{causes: causes}
}

// isSoftFailure 只有这三类错误说明可以换一个节点重试
func isSoftFailure(err error) bool {
	var cannotConnect *client.CannotConnectError
	var connErr *client.ConnectionError
	var cmdErr *client.CommandError
	switch {
	case errors.As(err, &cannotConnect):
		return true
	case errors.As(err, &connErr):
		return true
	case errors.As(err, &cmdErr):
		return true
	}
	return false
}

// fetchSlotInfo 查询单个节点并把回复整理成拓扑
func fetchSlotInfo(ctx context.Context, node Node) (fetchResult, error) {
	reply, err := node.Call(ctx, clusterSlotsCmd)
	if err == nil {
		if errReply, ok := reply.(protocol.ErrorReply); ok {
			err = &client.CommandError{Addr: node.Host(), Command: "CLUSTER SLOTS", Reply: errReply.Error()}
		}
	}
	if err != nil {
		if isSoftFailure(err) {
			return fetchResult{state: fetchSkipped, topology: newTopology(), cause: err}, nil
		}
		return fetchResult{}, err
	}

	entries, err := replyItems(reply)
	if err != nil {
		return fetchResult{}, err
	}
	topology := newTopology()
	for _, entry := range entries {
		owners, err := parseSlotInfo(entry, node.Host())
		if err != nil {
			return fetchResult{}, err
		}
		for _, owner := range owners {
			topology.appendRange(owner.nodeKey, owner.slots)
		}
	}
	return fetchResult{state: fetchAnswered, topology: topology}, nil
}

// slotOwner 是一个地址条目和它负责的哈希槽
type slotOwner struct {
	nodeKey string
	slots   SlotRange
}

// parseSlotInfo 解析 [first, last, [ip, port, ...], ...] 形式的一项。
// 主节点和从节点各自得到一条记录，共享同一个区间
func parseSlotInfo(entry redis.Reply, defaultIP string) ([]slotOwner, error) {
	fields, err := replyItems(entry)
	if err != nil {
		return nil, err
	}
	if len(fields) < 2 {
		return nil, &FormatError{Msg: "slot entry has " + strconv.Itoa(len(fields)) + " fields"}
	}
	first, err := replyInt(fields[0])
	if err != nil {
		return nil, err
	}
	last, err := replyInt(fields[1])
	if err != nil {
		return nil, err
	}
	slotRange := SlotRange{First: int(first), Last: int(last)}

	owners := make([]slotOwner, 0, len(fields)-2)
	for _, addr := range fields[2:] {
		parts, err := replyItems(addr)
		if err != nil {
			return nil, err
		}
		if len(parts) < 2 {
			return nil, &FormatError{Msg: "address entry has " + strconv.Itoa(len(parts)) + " fields"}
		}
		ip, err := replyString(parts[0])
		if err != nil {
			return nil, err
		}
		port, err := replyInt(parts[1])
		if err != nil {
			return nil, err
		}
		owners = append(owners, slotOwner{
			nodeKey: stringifyNodeKey(ip, port, defaultIP),
			slots:   slotRange,
		})
	}
	return owners, nil
}

/* ---- reply helpers ---- */

func replyItems(reply redis.Reply) ([]redis.Reply, error) {
	switch r := reply.(type) {
	case *protocol.MultiRawReply:
		return r.Replies, nil
	case *protocol.MultiBulkReply:
		items := make([]redis.Reply, len(r.Args))
		for i, arg := range r.Args {
			items[i] = protocol.MakeBulkReply(arg)
		}
		return items, nil
	case *protocol.EmptyMultiBulkReply, *protocol.NullBulkReply:
		return nil, nil
	}
	return nil, &FormatError{Msg: fmt.Sprintf("expected a list, got %T", reply)}
}

func replyInt(reply redis.Reply) (int64, error) {
	var raw string
	switch r := reply.(type) {
	case *protocol.IntReply:
		return r.Code, nil
	case *protocol.BulkReply:
		raw = string(r.Arg)
	case *protocol.StatusReply:
		raw = r.Status
	default:
		return 0, &FormatError{Msg: fmt.Sprintf("expected an integer, got %T", reply)}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &FormatError{Msg: "expected an integer, got " + strconv.Quote(raw)}
	}
	return n, nil
}

func replyString(reply redis.Reply) (string, error) {
	switch r := reply.(type) {
	case *protocol.BulkReply:
		return string(r.Arg), nil
	case *protocol.StatusReply:
		return r.Status, nil
	case *protocol.NullBulkReply:
		return "", nil
	}
	return "", &FormatError{Msg: fmt.Sprintf("expected a string, got %T", reply)}
}
