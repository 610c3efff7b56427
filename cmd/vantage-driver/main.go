// Command vantage-driver wires a RealtimeContainer to a real serial port
// and, optionally, a Redis-backed event sink, then drains the container's
// event stream into log lines until told to shut down.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/daviswx/vantage-driver/internal/config"
	"github.com/daviswx/vantage-driver/pkg/events"
	"github.com/daviswx/vantage-driver/pkg/realtime"
	"github.com/daviswx/vantage-driver/pkg/redis"
	"github.com/daviswx/vantage-driver/pkg/transport"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("vantage-driver: config: %v", err)
	}

	model, err := cfg.ParsedModel()
	if err != nil {
		log.Fatalf("vantage-driver: %v", err)
	}
	gate, err := cfg.ParsedGate()
	if err != nil {
		log.Fatalf("vantage-driver: %v", err)
	}

	var sink *events.EventSink
	if cfg.RedisAddr != "" {
		client, err := redis.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			log.Fatalf("vantage-driver: redis: %v", err)
		}
		defer client.Close()
		sink = events.NewEventSink(client)
		log.Printf("vantage-driver: mirroring readings to Redis at %s", cfg.RedisAddr)
	}

	container := realtime.New(realtime.Settings{
		DevicePath:       cfg.DevicePath,
		BaudRate:         cfg.BaudRate,
		Model:            model,
		UpdateInterval:   cfg.UpdateInterval,
		ReconnectBackoff: cfg.ReconnectBackoff,
		OnCreate:         gate,
	}, func(tc transport.Config) transport.ByteTransport {
		return transport.NewSerialPort(tc)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("vantage-driver: opening %s (model=%s)", cfg.DevicePath, cfg.Model)
	if err := container.Open(ctx); err != nil {
		log.Fatalf("vantage-driver: open: %v", err)
	}

	go func() {
		for ev := range container.Events() {
			if err := sink.Publish(ctx, ev); err != nil {
				log.Printf("vantage-driver: event sink: %v", err)
			}
			switch typed := ev.(type) {
			case realtime.EventUpdate:
				if typed.Err != nil {
					log.Printf("vantage-driver: update failed: %v", typed.Err)
				}
			case realtime.EventClose:
				log.Printf("vantage-driver: connection closed")
			}
		}
	}()

	<-ctx.Done()
	log.Printf("vantage-driver: shutting down")
	if err := container.Close(); err != nil {
		log.Printf("vantage-driver: close: %v", err)
	}
}
