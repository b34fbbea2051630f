// main holds the entry logic for the dynbike CLI.
package main

import (
	"errors"
	"os"

	"github.com/dynbike/dynbike/cmd"
	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/internal/iocache"
	"github.com/dynbike/dynbike/internal/log"
)

func main() {
	defer log.Sync()
	defer iocache.CloseStores()

	if err := cmd.Execute(); err != nil {
		iocache.CloseStores()
		log.Sync()
		if errors.Is(err, cmd.ErrSessionAbandoned) {
			os.Exit(cmd.ExitAbandoned)
		}
		contract.LogFatal("Command failed", err)
	}
}
