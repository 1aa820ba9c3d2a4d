package main

import (
	"github.com/netgraph-io/netgraph/internal/server"
	"github.com/netgraph-io/netgraph/internal/util"
	"github.com/netgraph-io/netgraph/pkg/logger"
	"github.com/netgraph-io/netgraph/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
