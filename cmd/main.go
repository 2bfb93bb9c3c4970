package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hausee/navigator-backend/internal/app"
	"github.com/hausee/navigator-backend/internal/platform/shutdown"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := shutdown.NotifyContext(context.Background(), func() {
		fmt.Println("second signal received, exiting without final flush")
		os.Exit(1)
	})
	defer stop()

	if err := a.Run(ctx); err != nil {
		fmt.Printf("server exited: %v\n", err)
		os.Exit(1)
	}
}
