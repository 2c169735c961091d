package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/CodingCaius/godis-slots/cluster"
	"github.com/CodingCaius/godis-slots/config"
	"github.com/CodingCaius/godis-slots/lib/logger"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "slots"
	app.Usage = "print the slot layout of a redis cluster"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "c,config",
			Usage:  "config file in redis.conf format",
			EnvVar: "SLOTS_CONFIG",
		},
		cli.StringFlag{
			Name:   "s,seeds",
			Usage:  "comma separated seed addresses, overrides cluster-seeds",
			EnvVar: "SLOTS_SEEDS",
		},
		cli.StringFlag{
			Name:  "k,key",
			Usage: "also print the slot and owners of this key",
		},
		cli.StringFlag{
			Name:  "f,format",
			Usage: "output format: text or yaml",
			Value: "text",
		},
		cli.StringFlag{
			Name:  "l,loglevel",
			Usage: "overrides loglevel from the config file",
		},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if path := c.String("config"); path != "" {
		if err := config.SetupConfig(path); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	props := config.Properties
	level := props.LogLevel
	if l := c.String("loglevel"); l != "" {
		level = l
	}
	if err := logger.Setup(&logger.Settings{
		Path:  props.LogDir,
		Name:  props.LogFile,
		Level: level,
		JSON:  props.LogJSON,
	}); err != nil {
		return err
	}

	var seeds []string
	if raw := c.String("seeds"); raw != "" {
		for _, addr := range strings.Split(raw, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				seeds = append(seeds, addr)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	topology, err := cluster.LoadFromSeeds(ctx, seeds)
	if err != nil {
		return err
	}
	return render(os.Stdout, topology, c.String("key"), c.String("format"))
}
