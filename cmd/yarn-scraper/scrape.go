package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/maltedev/yarn-scraper/internal/config"
	"github.com/maltedev/yarn-scraper/internal/storage"
	"github.com/spf13/cobra"
)

func newScrapeCommand() *cobra.Command {
	var (
		noModel bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "scrape <url> [url...]",
		Short: "Extract product pages and print them as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := newLogger(cfg.Logging, os.Stderr)

			var store *storage.ResultStore
			if output != "" {
				if store, err = storage.NewResultStore(output); err != nil {
					return err
				}
			}

			fetcher, closeFetcher, err := newFetcher(cfg)
			if err != nil {
				return err
			}
			defer closeFetcher()

			service := newService(cfg, fetcher, !noModel, nil, logger)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)

			var errs []error
			for _, pageURL := range args {
				product, err := service.ScrapeURL(cmd.Context(), pageURL)
				if err != nil {
					errs = append(errs, err)
					if store != nil {
						if saveErr := store.SaveFailure(pageURL, err); saveErr != nil {
							return saveErr
						}
					}
					continue
				}

				if store != nil {
					if err := store.SaveProduct(product); err != nil {
						return err
					}
				}
				if err := enc.Encode(product); err != nil {
					return err
				}
			}

			if store != nil {
				stats := store.Stats()
				logger.Info("results saved", "file", output,
					"completed", stats[storage.StatusCompleted],
					"failed", stats[storage.StatusFailed],
					"total", stats["total"])
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVar(&noModel, "no-model", false, "skip model reconciliation and image ranking")
	cmd.Flags().StringVarP(&output, "output", "o", "", "JSON file that keeps the latest result per URL")
	return cmd
}
