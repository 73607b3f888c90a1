package main

import (
	"os"

	"github.com/BarkinBalci/dataset-validation-service/cmd/pusher/commands"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
