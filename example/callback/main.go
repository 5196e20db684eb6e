package main

import (
	"context"
	"fmt"
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

	onSnapshot := func(rec *sees.SnapshotRecord) error {
		fmt.Printf("snapshot %s: %d frames, %d hits (trigger at %.1f ms)\n",
			rec.ID, rec.FrameCount(), rec.TierCounts.Total(), rec.TriggerMs)
		return nil
	}

	rt, err := sees.NewRuntime(cfg,
		sees.WithSnapshotSink(sees.NewCallbackSnapshotSink("stdout", onSnapshot)))
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil {
		log.Fatalf("session exited: %v", err)
	}
}
