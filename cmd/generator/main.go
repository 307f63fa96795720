// Command generator seeds the database with test lots and spaces.
package main

import (
	"context"
	"flag"
	"fmt"

	"parkhub/internal/config"
	"parkhub/internal/database"
	"parkhub/internal/logger"
	"parkhub/internal/models"
	"parkhub/internal/repository"

	"github.com/google/uuid"
)

var lotNames = []string{
	"North Campus", "South Campus", "Library Annex", "Stadium East",
	"Medical Centre", "Engineering Block", "Visitor Plaza", "West Gate",
}

func main() {
	lots := flag.Int("lots", 3, "number of lots to create")
	spaces := flag.Int("spaces", 20, "spaces per lot")
	clear := flag.Bool("clear", false, "delete existing data first")
	dryRun := flag.Bool("dry-run", false, "print the plan without writing")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, "text")
	log := logger.Get()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	if *dryRun {
		log.Info("Dry run", "lots", *lots, "spaces_per_lot", *spaces, "clear", *clear)
		return
	}

	ctx := context.Background()

	if *clear {
		for _, table := range []string{"bookings", "parking_spaces", "parking_lots"} {
			if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				logger.Fatal("Failed to clear table", "table", table, "error", err)
			}
		}
		log.Info("Cleared existing data")
	}

	store := repository.NewStore(db)

	for i := 0; i < *lots; i++ {
		name := fmt.Sprintf("Lot %d", i+1)
		if i < len(lotNames) {
			name = lotNames[i]
		}

		lot := &models.ParkingLot{
			ID:       uuid.New().String(),
			Name:     name,
			Location: fmt.Sprintf("Zone %c", 'A'+i%26),
		}

		err := store.WithTx(ctx, func(ctx context.Context) error {
			if err := store.CreateLot(ctx, lot); err != nil {
				return err
			}

			for n := 1; n <= *spaces; n++ {
				space := &models.ParkingSpace{
					ID:     uuid.New().String(),
					LotID:  lot.ID,
					Number: n,
				}
				if err := store.InsertSpace(ctx, space); err != nil {
					return err
				}
			}

			lot.TotalSpaces = *spaces
			lot.AvailableSpaces = *spaces
			return store.UpdateLotCounters(ctx, lot)
		})
		if err != nil {
			logger.Fatal("Failed to seed lot", "name", name, "error", err)
		}

		log.Info("Seeded lot", "lot_id", lot.ID, "name", name, "spaces", *spaces)
	}

	log.Info("Generation complete", "lots", *lots, "spaces_per_lot", *spaces)
}
