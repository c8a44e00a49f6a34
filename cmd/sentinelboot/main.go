package main

import (
	"context"
	"os"

	"github.com/dalemusser/sentinelboot/internal/app/bootstrap"
)

func main() {
	if _, err := bootstrap.Run(context.Background()); err != nil {
		os.Exit(1)
	}
}
