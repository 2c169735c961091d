package cluster

import "strconv"

// SlotRange 是一段闭区间的哈希槽 [First, Last]
type SlotRange struct {
	First int `yaml:"first"`
	Last  int `yaml:"last"`
}

// Contains reports whether slot lies in the range
func (r SlotRange) Contains(slot int) bool {
	return r.First <= slot && slot <= r.Last
}

func (r SlotRange) String() string {
	return strconv.Itoa(r.First) + "-" + strconv.Itoa(r.Last)
}

// Topology maps node keys to the slot ranges they serve.
// It is built by a single discovery pass and never modified after Load returns it.
// Node keys keep the order in which they first appeared in the reply.
type Topology struct {
	keys   []string
	ranges map[string][]SlotRange
}

func newTopology() *Topology {
	return &Topology{
		ranges: make(map[string][]SlotRange),
	}
}

// rangesOf 返回节点对应的列表，第一次出现的节点先创建一个空列表
func (t *Topology) rangesOf(nodeKey string) []SlotRange {
	list, ok := t.ranges[nodeKey]
	if !ok {
		list = make([]SlotRange, 0, 1)
		t.ranges[nodeKey] = list
		t.keys = append(t.keys, nodeKey)
	}
	return list
}

// appendRange 把 slotRange 追加到节点的列表末尾
func (t *Topology) appendRange(nodeKey string, slotRange SlotRange) {
	t.ranges[nodeKey] = append(t.rangesOf(nodeKey), slotRange)
}

// Empty reports whether the topology has no node at all
func (t *Topology) Empty() bool {
	return t == nil || len(t.keys) == 0
}

// Len returns the number of node keys
func (t *Topology) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// NodeKeys returns node keys in first-seen order
func (t *Topology) NodeKeys() []string {
	if t == nil {
		return nil
	}
	keys := make([]string, len(t.keys))
	copy(keys, t.keys)
	return keys
}

// Ranges returns a copy of the slot ranges served by nodeKey
func (t *Topology) Ranges(nodeKey string) []SlotRange {
	if t == nil {
		return nil
	}
	list, ok := t.ranges[nodeKey]
	if !ok {
		return nil
	}
	result := make([]SlotRange, len(list))
	copy(result, list)
	return result
}

// Owners returns every node key serving slot. Primaries come before their
// replicas because the reply lists the primary first.
func (t *Topology) Owners(slot int) []string {
	if t == nil {
		return nil
	}
	var owners []string
	for _, key := range t.keys {
		for _, r := range t.ranges[key] {
			if r.Contains(slot) {
				owners = append(owners, key)
				break
			}
		}
	}
	return owners
}

// OwnersOfKey returns the node keys serving the slot of key
func (t *Topology) OwnersOfKey(key string) []string {
	return t.Owners(KeySlot(key))
}

// Map returns a copy of the routing table
func (t *Topology) Map() map[string][]SlotRange {
	result := make(map[string][]SlotRange, t.Len())
	if t == nil {
		return result
	}
	for _, key := range t.keys {
		result[key] = t.Ranges(key)
	}
	return result
}
