package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/cashcare/internal/server"
	"github.com/dmitrijs2005/cashcare/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	app.Run(ctx)
}
