package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/incommon/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	runner, err := NewRunner(RunnerOpts{Logger: logger})
	if err != nil {
		logger.Fatalf("failed to initialize: %v", err)
	}

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
