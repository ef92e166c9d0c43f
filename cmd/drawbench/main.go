// Command drawbench renders N textured cubes with one of three draw strategies and logs the
// frame statistics of each.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/Carmen-Shannon/oxy-drawbench/config"
	"github.com/Carmen-Shannon/oxy-drawbench/engine"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file (defaults apply when empty)")
	flag.Parse()

	logger := common.Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", "err", err)
	}

	e, err := engine.NewEngine(cfg, engine.WithConfigPath(*configPath))
	if err != nil {
		logger.Fatal("start benchmark", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := e.Run(ctx); err != nil {
		logger.Fatal("benchmark aborted", "err", err)
	}
}
