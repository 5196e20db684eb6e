package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	sees "github.com/hsfl/aeris-sees-software"
)

func main() {
	cfg, err := sees.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	rt, err := sees.NewRuntime(cfg)
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil {
		log.Fatalf("session exited: %v", err)
	}
}
