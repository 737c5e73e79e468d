package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"retail_bank/internal/config"
	"retail_bank/internal/loader"
	"retail_bank/internal/processor"
	"retail_bank/internal/repository/memory"
	"retail_bank/internal/teller"
	"syscall"
)

func main() {
	flags := config.Flags("teller")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout belongs to the session transcript.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := memory.NewAccountStore()
	accountProcessor := processor.NewAccountProcessor(
		store,
		store.Archive(),
		processor.WithLogger(logger),
	)
	if _, err := loader.Seed(ctx, accountProcessor, cfg.SeedAccountsFile, cfg.SeedActivitiesFile, logger); err != nil {
		logger.Error("Failed to load seed data", slog.String("error", err.Error()))
		os.Exit(1)
	}

	session := teller.NewSession(accountProcessor, logger)
	if err := session.Run(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		logger.Error("Session failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
