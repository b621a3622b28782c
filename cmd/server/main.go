package main

import (
	"github.com/factfeed/factfeed/internal/server"
	"github.com/factfeed/factfeed/internal/util"
	"github.com/factfeed/factfeed/pkg/logger"
	"github.com/factfeed/factfeed/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	logger.Init(console.New(console.Params{
		Debug: debug,
	}))

	server.Init()
}
