// cmd/s3check/main.go
package main

import (
	"errors"
	"os"

	"github.com/andresuchdata/autopo-py/s3check/pkg/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		// the orchestrator has already logged the cause
		if errors.Is(err, errAborted) {
			os.Exit(1)
		}
		logger.Log.Fatal().Err(err).Msg("s3check failed")
	}
}
