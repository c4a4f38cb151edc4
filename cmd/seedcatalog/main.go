// cmd/seedcatalog/main.go: loads a demo catalog for one seller.
// Usage: go run ./cmd/seedcatalog -owner <uuid>
// Products whose code already exists are skipped, so the command can be re-run.
package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"backoffice/internal/config"
	"backoffice/internal/dto"
	"backoffice/internal/infra"
	"backoffice/internal/repository"
	"backoffice/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var demoCatalog = []dto.CreateProductRequest{
	{ProductCode: "COF-250", Name: "Ground coffee 250g", Category: "Grocery", UnitPrice: decimal.RequireFromString("6.50"), CostPrice: decimal.RequireFromString("3.90"), Quantity: 40, Unit: "bag"},
	{ProductCode: "TEA-GRN", Name: "Green tea 20 bags", Category: "Grocery", UnitPrice: decimal.RequireFromString("3.20"), CostPrice: decimal.RequireFromString("1.75"), Quantity: 25, Unit: "box"},
	{ProductCode: "MUG-WHT", Name: "Ceramic mug", Category: "Homeware", UnitPrice: decimal.RequireFromString("9.00"), CostPrice: decimal.RequireFromString("4.10"), Quantity: 8, Unit: "piece"},
	{ProductCode: "FLT-V60", Name: "Paper filters V60", Category: "Accessories", SaleType: "bulk", UnitPrice: decimal.RequireFromString("5.40"), CostPrice: decimal.RequireFromString("2.20"), WholesalePrice: decimal.RequireFromString("4.80"), Quantity: 0, Unit: "pack"},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	owner := flag.String("owner", "", "seller id to seed")
	flag.Parse()

	ownerID, err := uuid.Parse(*owner)
	if err != nil {
		log.Fatal().Str("owner", *owner).Msg("-owner must be a UUID")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	svc := service.NewProductService(
		repository.NewTxManager(db),
		repository.NewProductRepository(db),
		repository.NewStockHistoryRepository(db),
	)
	actor := service.Actor{UserID: ownerID, OwnerID: ownerID}

	ctx := context.Background()
	for _, req := range demoCatalog {
		p, err := svc.Create(ctx, actor, req)
		switch {
		case errors.Is(err, service.ErrConflict):
			log.Info().Str("code", req.ProductCode).Msg("already present, skipped")
		case err != nil:
			log.Fatal().Err(err).Str("code", req.ProductCode).Msg("seed failed")
		default:
			log.Info().Str("code", p.ProductCode).Str("id", p.ID).Int("quantity", p.Quantity).Msg("created")
		}
	}
}
