package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/cruxstack/receptionist-functions-go/internal/config"
	"github.com/cruxstack/receptionist-functions-go/internal/functions"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.AppLogLevel})))

	h, err := functions.NewStartCallFromConfig(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to init start-call", "error", err)
		os.Exit(1)
	}

	lambda.Start(h.Handler())
}
