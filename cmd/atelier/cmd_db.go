package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atelier/storefront/app/services"
	"github.com/atelier/storefront/config"
	"github.com/atelier/storefront/internal/server"
)

// atelier seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo catalogue and the fixture admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		flush := server.SetupLogger(cfg)
		defer flush()

		ctx := context.Background()
		store, err := server.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close(ctx) //nolint:errcheck

		hasher, err := server.NewHasher(cfg)
		if err != nil {
			return err
		}

		res, err := services.NewSeedService(store, hasher, cfg.SeedAdminEmail, cfg.SeedAdminPassword, nil).Seed(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d products)\n", res.Message, res.ProductCount)
		return nil
	},
}
