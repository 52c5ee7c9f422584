package main

import (
	"github.com/bryansoph/taskflow/cmd"
	"github.com/bryansoph/taskflow/internal/logger"
)

func main() {
	defer logger.HandlePanic()
	cmd.Execute()
}
