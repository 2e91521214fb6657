package main

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pet-assistant/backend/internal/config"
	"github.com/pet-assistant/backend/internal/search"
	"github.com/pet-assistant/backend/internal/storage"
)

// app carries what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	loader *search.CatalogLoader
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var catalogPath, logLevel string

	root := &cobra.Command{
		Use:           "petassist",
		Short:         "Pet care assistant that matches requests to services",
		Long:          "Matches a free-text description of a pet-care need to the best service in the catalog and lets a language model present it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()
			if catalogPath != "" {
				a.cfg.Catalog.Path = catalogPath
			}
			if logLevel != "" {
				a.cfg.Logging.Level = logLevel
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(a.cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.logger = logger
			a.loader = search.NewCatalogLoader(a.loadRecords, nil)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Path to the service catalog (.json, .yaml, .toml, .db)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	chat := newChatCmd(a)
	root.AddCommand(chat, newMatchCmd(a), newServeCmd(a), newImportCmd(a))
	root.Args = cobra.NoArgs
	root.RunE = chat.RunE

	return root
}

func (a *app) loadRecords(ctx context.Context) ([]search.ServiceRecord, error) {
	store, err := storage.Open(a.cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	records, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", a.cfg.Catalog.Path, err)
	}
	a.logger.WithFields(logrus.Fields{
		"path":     a.cfg.Catalog.Path,
		"services": len(records),
	}).Info("Catalog loaded")
	return records, nil
}

func newLogger(cfg config.LoggingConfig, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	if cfg.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
