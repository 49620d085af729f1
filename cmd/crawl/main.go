package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/estateworker/internal/cli"
	"sjsage522/estateworker/logger"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	// stdout carries the crawl summary
	logger.InitWithWriter(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}
