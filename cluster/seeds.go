package cluster

import (
	"context"

	"github.com/CodingCaius/godis-slots/config"
	"github.com/CodingCaius/godis-slots/redis/client"
)

// LoadFromSeeds builds a client for every seed address and runs Load over them.
// An empty seeds list falls back to config.Properties.ClusterSeeds.
// The clients are closed before returning.
func LoadFromSeeds(ctx context.Context, seeds []string) (*Topology, error) {
	props := config.Properties
	if len(seeds) == 0 {
		seeds = props.ClusterSeeds
	}
	nodes := make([]Node, 0, len(seeds))
	for _, addr := range seeds {
		c := client.MakeClient(addr,
			client.WithPassword(props.RequirePass),
			client.WithTimeouts(props.DialTimeout(), props.IOTimeout()),
		)
		defer func() {
			_ = c.Close()
		}()
		nodes = append(nodes, c)
	}
	return Load(ctx, nodes)
}
