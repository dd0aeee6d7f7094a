package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/niksmo/shop-assistant/config"
	"github.com/niksmo/shop-assistant/internal/app"
)

const closeTimeout = 10 * time.Second

func main() {
	sigCtx, closeApp := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	shop := app.New(sigCtx, cfg)

	shop.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	shop.Close(ctx)
}
