package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soundadvice/voice-client/internal/advisory"
	"github.com/soundadvice/voice-client/internal/config"
	"github.com/soundadvice/voice-client/internal/observability"
	"github.com/soundadvice/voice-client/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("server_ws_url", cfg.ServerWSURL).
		Str("advice_base_url", cfg.AdviceBaseURL).
		Int("advice_interval_sec", cfg.AdviceIntervalSec).
		Bool("accept_partials", cfg.AcceptPartials).
		Str("log_level", cfg.LogLevel).
		Msg("Voice client starting")

	api := advisory.NewClient(cfg.AdviceBaseURL, cfg.HTTPTimeout())
	recorder := session.NewRecorder(cfg, api)

	// Ops HTTP surface: health, readiness, status and metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/status", observability.StatusHandler(recorder))
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"advisory": api.Ping,
	}))
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	opsServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.OpsPort),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info().Str("port", cfg.OpsPort).Msg("Ops listener started")
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Ops listener failed")
		}
	}()

	// Operator commands on stdin, shutdown signals from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	commands := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			commands <- strings.TrimSpace(scanner.Text())
		}
		close(commands)
	}()

	fmt.Println("Commands: <enter> start/stop recording, advice, score, summary, pdf <path>, quit")

	running := true
	for running {
		select {
		case <-quit:
			logger.Info().Msg("Shutdown signal received")
			running = false

		case line, ok := <-commands:
			if !ok {
				running = false
				break
			}
			handleCommand(recorder, api, line)
		}
	}

	// Tear down any active session before exiting
	if recorder.State() == session.StateRecording {
		if err := recorder.Stop(); err != nil {
			logger.Error().Err(err).Msg("Failed to stop recording during shutdown")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := opsServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Ops listener forced to shut down")
	}

	logger.Info().Msg("Voice client exited")
}

// handleCommand dispatches one operator command line
func handleCommand(recorder *session.Recorder, api *advisory.Client, line string) {
	logger := observability.GetLogger()

	switch {
	case line == "":
		// Enter toggles the recording lifecycle
		if recorder.State() == session.StateRecording {
			if err := recorder.Stop(); err != nil {
				logger.Error().Err(err).Msg("Stop failed")
				return
			}
			fmt.Println("Recording stopped.")
			if t := recorder.Transcript(); t != "" {
				fmt.Printf("--- transcript ---\n%s\n------------------\n", t)
			}
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := recorder.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("Start failed")
				return
			}
			fmt.Println("Recording... press enter to stop.")
		}

	case line == "advice":
		if advice := recorder.Advice(); advice != "" {
			fmt.Printf("Advice: %s\n", advice)
		} else {
			fmt.Println("No advice yet.")
		}

	case line == "score":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		score, err := api.SatisfactionScore(ctx, recorder.Transcript())
		if err != nil {
			logger.Error().Err(err).Msg("Satisfaction score request failed")
			return
		}
		fmt.Printf("Satisfaction score: %.0f\n", score)

	case line == "summary":
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		csv, err := api.Summary(ctx, recorder.Transcript())
		if err != nil {
			logger.Error().Err(err).Msg("Summary request failed")
			return
		}
		if err := os.WriteFile("summary.csv", csv, 0o644); err != nil {
			logger.Error().Err(err).Msg("Failed to write summary.csv")
			return
		}
		fmt.Println("Summary written to summary.csv")

	case strings.HasPrefix(line, "pdf "):
		path := strings.TrimSpace(strings.TrimPrefix(line, "pdf "))
		if path == "" {
			fmt.Println("Usage: pdf <path>")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()
		status, err := api.UploadPDF(ctx, path)
		if err != nil {
			logger.Error().Err(err).Msg("PDF upload failed")
			return
		}
		fmt.Printf("PDF upload: %s\n", status)

	case line == "quit" || line == "exit":
		// Mirror a SIGINT: stop and let the main loop exit via closed stdin
		if recorder.State() == session.StateRecording {
			if err := recorder.Stop(); err != nil && !errors.Is(err, session.ErrNotRecording) {
				logger.Error().Err(err).Msg("Stop failed")
			}
		}
		os.Exit(0)

	default:
		fmt.Printf("Unknown command: %q\n", line)
	}
}
