package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/moodlebridge/internal/server"
	"github.com/dmitrijs2005/moodlebridge/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
