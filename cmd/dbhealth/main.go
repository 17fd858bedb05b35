package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/freeseed/exams-tw/internal/common"
	"github.com/freeseed/exams-tw/internal/examstore"
	"github.com/freeseed/exams-tw/internal/repository"
	"github.com/freeseed/exams-tw/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger, closer, err := common.NewLogger("", cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ledger, err := server.ConnectLedger(ctx, cfg.Ledger, logger)
	if err != nil {
		log.Fatalf("opening ledger: %v", err)
	}
	defer server.CloseAll(ledger, nil, logger)

	if err := server.PingLedger(ctx, ledger, logger, time.Second); err != nil {
		log.Fatalf("ledger health: FAIL (%v)", err)
	}
	log.Printf("ledger health: OK (%s)", ledger.Dialect())

	jobs, err := repository.NewExtractJobRepository(ledger, logger).List(ctx, repository.JobFilter{Limit: 5})
	if err != nil {
		log.Fatalf("listing jobs: %v", err)
	}
	log.Printf("recent jobs: %d", len(jobs))
	for _, j := range jobs {
		log.Printf("- %s %s %s", j.ExamID, j.Layout, j.Status)
	}

	if cfg.Mongo.MongoURI() == "" {
		log.Println("mongo: skipped (MONGO_URI or MONGO_ID/MONGO_PW not set)")
		return
	}
	store, err := server.ConnectMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		log.Fatalf("opening mongo: %v", err)
	}
	defer server.CloseAll(nil, store, logger)

	if err := server.PingMongo(ctx, store, logger, 5*time.Second); err != nil {
		log.Fatalf("mongo health: FAIL (%v)", err)
	}
	total, err := store.Exams().Count(ctx, examstore.Filter{})
	if err != nil {
		log.Fatalf("counting exams: %v", err)
	}
	parsed, err := store.Exams().Count(ctx, examstore.Filter{ParsedOnly: true})
	if err != nil {
		log.Fatalf("counting exams: %v", err)
	}
	log.Printf("mongo health: OK (%d exams, %d parsed)", total, parsed)
}
