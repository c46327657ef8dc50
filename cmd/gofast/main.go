package main

import (
	"log/slog"

	"github.com/gofast/gofast/internal/cli"
	"github.com/gofast/gofast/internal/logging"
)

func main() {
	logging.Init(slog.LevelError)
	cli.Execute()
}
