package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yuwankavi/Gas-Project/internal/adapters/postgres"
	"github.com/yuwankavi/Gas-Project/internal/core/domain"
	"github.com/yuwankavi/Gas-Project/internal/pkg/config"
)

// prepareImport validates sellers and fills in missing identity fields.
// Invalid entries are dropped and counted.
func prepareImport(sellers []domain.Seller, now time.Time) ([]domain.Seller, int) {
	out := make([]domain.Seller, 0, len(sellers))
	rejected := 0
	for i, s := range sellers {
		if err := s.Validate(); err != nil {
			rejected++
			if verbose {
				fmt.Fprintf(os.Stderr, "skipping entry %d: %s\n", i, domain.MessageOf(err))
			}
			continue
		}
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		out = append(out, s)
	}
	return out, rejected
}

func runImport(cmd *cobra.Command, args []string) error {
	if importBatch <= 0 {
		return fmt.Errorf("--batch must be positive")
	}
	sellers, err := readSellers(importFile)
	if err != nil {
		return err
	}
	valid, rejected := prepareImport(sellers, time.Now().UTC())

	cfg, err := config.Load("sellerctl")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	store := postgres.NewSellerStore(db)

	start := time.Now()
	for i := 0; i < len(valid); i += importBatch {
		end := i + importBatch
		if end > len(valid) {
			end = len(valid)
		}
		if err := store.SaveBatch(ctx, valid[i:end]); err != nil {
			return fmt.Errorf("import rows %d-%d: %w", i, end-1, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "imported %d/%d\n", end, len(valid))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sellers (%d rejected) in %v\n",
		len(valid), rejected, time.Since(start).Round(time.Millisecond))
	return nil
}
