package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dalfonso89/currency-converter/internal/commands"
	"github.com/dalfonso89/currency-converter/internal/config"
	"github.com/dalfonso89/currency-converter/internal/credentials"
	"github.com/dalfonso89/currency-converter/internal/logger"
	"github.com/dalfonso89/currency-converter/internal/platform"
	"github.com/dalfonso89/currency-converter/internal/service"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Cancelled on Ctrl+C
	shutdownCtx, stop := platform.NewShutdownContext(context.Background())
	defer stop()

	if err := run(shutdownCtx, cfg, logger, os.Stdin, os.Stdout); err != nil {
		logger.Errorf("Exiting with error: %v", err)
		stop()
		os.Exit(1)
	}
}

// run wires the application and blocks until the input ends, the user exits
// or ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Welcome to the Currency Converter!")
	fmt.Fprintln(out, "This program uses www.exchangerate-api.com to get the latest exchange rates.")
	fmt.Fprintln(out, "Type help for a list of commands.")

	configDir := cfg.ConfigDir
	if configDir == "" {
		dir, err := credentials.DefaultDir(cfg.AppName)
		if err != nil {
			return err
		}
		configDir = dir
	}

	// Initialize services
	store := credentials.NewStore(configDir, cfg.APIKeyEnv)
	client := service.NewExchangeRateClient(cfg, store, logger)
	dispatcher := commands.NewDispatcher(client, store, out, logger)
	loop := commands.NewLoop(dispatcher, logger)

	logger.WithField("config_file", store.Path()).Debug("Starting input loop")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, groupCtx := errgroup.WithContext(runCtx)

	// Input task. Ending it for any reason releases the interrupt task.
	group.Go(func() error {
		defer cancel()
		err := loop.Run(groupCtx, in)
		if errors.Is(err, commands.ErrExit) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// Interrupt task
	group.Go(func() error {
		<-groupCtx.Done()
		if ctx.Err() != nil {
			logger.Info("Interrupt received")
		}
		return nil
	})

	err := group.Wait()
	fmt.Fprintln(out, "Exiting the program...")
	return err
}
