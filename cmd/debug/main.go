package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/aws/aws-lambda-go/events"
	"github.com/charmbracelet/log"
	"github.com/cruxstack/receptionist-functions-go/internal/config"
	"github.com/cruxstack/receptionist-functions-go/internal/devserver"
	"github.com/cruxstack/receptionist-functions-go/internal/functions"
	"github.com/joho/godotenv"
)

var (
	dataPath   string
	policyPath string
	serve      bool
	addr       string
)

func init() {
	flag.StringVar(&dataPath, "data", "", "path to JSON file with test event data")
	flag.StringVar(&policyPath, "policy", "", "override path to Rego email domain policy")
	flag.BoolVar(&serve, "serve", false, "serve the functions over HTTP instead of replaying events")
	flag.StringVar(&addr, "addr", ":8888", "listen address for -serve")
	flag.Parse()
}

// DebugEvent is one replayed request and the status it is expected to produce.
type DebugEvent struct {
	Function       string                        `json:"function"`
	Request        events.APIGatewayProxyRequest `json:"request"`
	ExpectedStatus int                           `json:"expectedStatus"`
}

func NewDebugConfig() (*config.Config, error) {
	envpath := filepath.Join("..", "..", ".env")
	if _, err := os.Stat(envpath); err == nil {
		_ = godotenv.Load(envpath)
	}

	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	cfg.DebugMode = true
	cfg.AppSendEnabled = os.Getenv("APP_SEND_ENABLED") == "true"

	if cfg.AppEmailPolicyPath == "" {
		cfg.AppEmailPolicyPath = filepath.Join("..", "..", "fixtures", "domain-policy.rego")
	}
	if policyPath != "" {
		cfg.AppEmailPolicyPath = policyPath
	}

	if cfg.DebugDataPath == "" {
		cfg.DebugDataPath = filepath.Join("..", "..", "fixtures", "debug-events.json")
	}
	if dataPath != "" {
		cfg.DebugDataPath = dataPath
	}

	return cfg, nil
}

func buildHandlers(ctx context.Context, cfg *config.Config) devserver.Handlers {
	var h devserver.Handlers

	if ve, err := functions.NewValidateEmailFromConfig(cfg); err != nil {
		log.Warn("validate-email disabled", "error", err)
	} else {
		h.ValidateEmail = ve.Handler()
	}

	if gt, err := functions.NewGetTokenFromConfig(ctx, cfg); err != nil {
		log.Warn("get-token disabled", "error", err)
	} else {
		h.GetToken = gt.Handler()
	}

	if sc, err := functions.NewStartCallFromConfig(ctx, cfg); err != nil {
		log.Warn("start-call disabled", "error", err)
	} else {
		h.StartCall = sc.Handler()
	}

	return h
}

func lookup(h devserver.Handlers, name string) functions.HandlerFunc {
	switch name {
	case "validate-email":
		return h.ValidateEmail
	case "get-token":
		return h.GetToken
	case "start-call":
		return h.StartCall
	}
	return nil
}

func main() {
	cfg, err := NewDebugConfig()
	if err != nil {
		log.Fatal("failed to debug load config", "error", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.Level(cfg.AppLogLevel),
		ReportTimestamp: true,
	})
	log.SetDefault(logger)
	slog.SetDefault(slog.New(logger))

	ctx := context.Background()
	handlers := buildHandlers(ctx, cfg)

	if serve {
		log.Info("serving functions", "addr", addr, "environment", cfg.AppEnvironment)
		if err := http.ListenAndServe(addr, devserver.NewRouter(handlers)); err != nil {
			log.Fatal("server failed", "error", err)
		}
		return
	}

	data, err := os.ReadFile(cfg.DebugDataPath)
	if err != nil {
		log.Fatal("failed to read data file", "path", cfg.DebugDataPath, "error", err)
	}

	evts := []DebugEvent{}
	if err := json.Unmarshal(data, &evts); err != nil {
		log.Fatal("failed to parse event file", "error", err)
	}

	for i, e := range evts {
		fn := lookup(handlers, e.Function)
		if fn == nil {
			log.Warn("skipping event for unavailable function", "index", i, "function", e.Function)
			continue
		}

		resp, err := fn(ctx, e.Request)
		if err != nil {
			log.Error("integration test failed", "index", i, "error", err)
			os.Exit(1)
		}
		if e.ExpectedStatus != 0 && resp.StatusCode != e.ExpectedStatus {
			log.Error("integration test failed",
				"index", i,
				"function", e.Function,
				"expected_status", e.ExpectedStatus,
				"status", resp.StatusCode,
				"body", resp.Body,
			)
			os.Exit(1)
		}
		log.Info("integration iteration passed", "index", i, "function", e.Function, "status", resp.StatusCode, "body", resp.Body)
	}

	log.Info("integration test passed")
}
