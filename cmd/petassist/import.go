package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pet-assistant/backend/internal/storage"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <src> <dst>",
		Short: "Copy a catalog between storage formats (json, yaml, toml, sqlite)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			src, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			records, err := src.Load(ctx)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			dst, err := storage.Open(args[1])
			if err != nil {
				return err
			}
			defer dst.Close()

			if err := dst.Save(ctx, records); err != nil {
				return fmt.Errorf("write %s: %w", args[1], err)
			}

			a.logger.WithFields(logrus.Fields{
				"from":     args[0],
				"to":       args[1],
				"services": len(records),
			}).Info("Catalog imported")
			return nil
		},
	}
}
