package main

import (
	"fmt"
	"os"

	"github.com/temirov/snapshot/internal/cli"
	"github.com/temirov/snapshot/internal/snapshot"
	"github.com/temirov/snapshot/internal/utils"
)

// main is the entry point for the snapshot command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger()
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer loggerInstance.Sync()
	applicationExecutionError := cli.Execute()
	switch {
	case applicationExecutionError == nil, snapshot.IsCanceled(applicationExecutionError):
		return
	case snapshot.IsReported(applicationExecutionError):
		_ = loggerInstance.Sync()
		os.Exit(1)
	default:
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}
