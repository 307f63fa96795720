// Command reconcile audits lot counters against the actual space rows and
// optionally repairs drift. Counters are only ever mutated inside the same
// transaction as their spaces, so any drift found here points at a bug or
// manual data surgery.
package main

import (
	"context"
	"flag"
	"os"

	"parkhub/internal/config"
	"parkhub/internal/database"
	"parkhub/internal/logger"
	"parkhub/internal/repository"
)

func main() {
	fix := flag.Bool("fix", false, "rewrite drifted counters from the space rows")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, "text")
	log := logger.Get()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	store := repository.NewStore(db)
	ctx := context.Background()

	lots, err := store.ListLots(ctx)
	if err != nil {
		logger.Fatal("Failed to list lots", "error", err)
	}

	drifted := 0
	for _, lot := range lots {
		rc, err := store.RecountLot(ctx, lot.ID)
		if err != nil {
			log.Error("Failed to recount lot", "lot_id", lot.ID, "error", err)
			continue
		}

		if rc.Total == lot.TotalSpaces &&
			rc.Available == lot.AvailableSpaces &&
			rc.Booked == lot.BookedSpaces &&
			rc.Occupied == lot.OccupiedSpaces {
			continue
		}

		drifted++
		log.Warn("Counter drift detected",
			"lot_id", lot.ID, "name", lot.Name,
			"stored_total", lot.TotalSpaces, "actual_total", rc.Total,
			"stored_available", lot.AvailableSpaces, "actual_available", rc.Available,
			"stored_booked", lot.BookedSpaces, "actual_booked", rc.Booked,
			"stored_occupied", lot.OccupiedSpaces, "actual_occupied", rc.Occupied)

		if !*fix {
			continue
		}

		lot := lot
		lot.TotalSpaces = rc.Total
		lot.AvailableSpaces = rc.Available
		lot.BookedSpaces = rc.Booked
		lot.OccupiedSpaces = rc.Occupied

		err = store.WithTx(ctx, func(ctx context.Context) error {
			locked, err := store.GetLotForUpdate(ctx, lot.ID)
			if err != nil {
				return err
			}
			if locked == nil {
				return nil
			}
			locked.TotalSpaces = rc.Total
			locked.AvailableSpaces = rc.Available
			locked.BookedSpaces = rc.Booked
			locked.OccupiedSpaces = rc.Occupied
			return store.UpdateLotCounters(ctx, locked)
		})
		if err != nil {
			log.Error("Failed to repair lot counters", "lot_id", lot.ID, "error", err)
			continue
		}

		log.Info("Repaired lot counters", "lot_id", lot.ID)
	}

	if drifted == 0 {
		log.Info("All lot counters consistent", "lots_checked", len(lots))
		return
	}

	log.Warn("Reconciliation finished", "lots_checked", len(lots), "drifted", drifted, "fixed", *fix)
	if !*fix {
		os.Exit(1)
	}
}
