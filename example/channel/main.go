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

	sink, snapshots, closeSink := sees.NewChannelSnapshotSink("consumer", 8)
	defer closeSink()

	rt, err := sees.NewRuntime(cfg, sees.WithSnapshotSink(sink))
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		for rec := range snapshots {
			fmt.Printf("snapshot %d covers %.1f..%.1f ms\n",
				rec.Seq, rec.WindowStartMs, rec.WindowEndMs)
		}
	}()

	if err := rt.Run(ctx); err != nil {
		log.Fatalf("session exited: %v", err)
	}
}
