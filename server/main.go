package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("server", pflag.ContinueOnError)
	configFile := flagSet.StringP("config", "c", "serverconfig.json", "path to configuration file")
	noConsole := flagSet.Bool("no-console", false, "do not read operator commands from stdin")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	config := NewConfig(*configFile)
	configErr := config.Load()

	logFile, logger, err := setupLogging(config.LogDir, os.Stdout)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if configErr != nil {
		logger.Warn(ctx, "error loading config, using defaults", "error", configErr)
	}

	srv := NewServer(config, logger)
	server := &http.Server{
		Addr:              config.Addr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if !*noConsole {
		go func() {
			if runConsole(os.Stdin, os.Stdout, srv) {
				stop()
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error(ctx, "listen failed", "error", err)
		}
	}

	logger.Info(context.Background(), "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "shutdown failed", "error", err)
	}

	st := srv.Stats()
	logger.Info(shutdownCtx, "server stopped", "posts", st.Posts, "registrations", st.Registrations, "failures", st.Failures)
	_ = logFile.Close()

	target, err := compressLog(config.LogDir, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to compress log: %v\n", err)
		return nil
	}
	fmt.Printf("Log compressed to %s\n", target)
	return os.Remove(filepath.Join(config.LogDir, logFileName))
}
