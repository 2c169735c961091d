package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/CodingCaius/godis-slots/cluster"
	"gopkg.in/yaml.v2"
)

type nodeView struct {
	Node  string              `yaml:"node"`
	Slots []cluster.SlotRange `yaml:"slots"`
}

type keyView struct {
	Key    string   `yaml:"key"`
	Slot   int      `yaml:"slot"`
	Owners []string `yaml:"owners"`
}

type report struct {
	Nodes []nodeView `yaml:"nodes"`
	Key   *keyView   `yaml:"lookup,omitempty"`
}

func buildReport(topology *cluster.Topology, key string) report {
	r := report{}
	for _, nodeKey := range topology.NodeKeys() {
		r.Nodes = append(r.Nodes, nodeView{Node: nodeKey, Slots: topology.Ranges(nodeKey)})
	}
	if key != "" {
		r.Key = &keyView{Key: key, Slot: cluster.KeySlot(key), Owners: topology.OwnersOfKey(key)}
	}
	return r
}

// render 按 format 输出拓扑，text 每行一个节点
func render(w io.Writer, topology *cluster.Topology, key string, format string) error {
	r := buildReport(topology, key)
	switch format {
	case "yaml":
		out, err := yaml.Marshal(r)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case "text", "":
		for _, node := range r.Nodes {
			ranges := make([]string, len(node.Slots))
			for i, slots := range node.Slots {
				ranges[i] = slots.String()
			}
			if _, err := fmt.Fprintf(w, "%s %s\n", node.Node, strings.Join(ranges, ",")); err != nil {
				return err
			}
		}
		if r.Key != nil {
			_, err := fmt.Fprintf(w, "key %s slot %d owners %s\n", r.Key.Key, r.Key.Slot, strings.Join(r.Key.Owners, ","))
			return err
		}
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}
