package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/freeseed/exams-tw/internal/entity"
	"github.com/freeseed/exams-tw/internal/examstore"
	"github.com/freeseed/exams-tw/internal/server"
)

var (
	loadDir   string
	loadBatch int
)

// loadCmd upserts exam records into MongoDB.
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Upsert exam records into MongoDB",
	Long: `Reads every exam record in --dir and replaces the MongoDB document with the
same id, inserting it when missing. Requires MONGO_URI or MONGO_ID/MONGO_PW.`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadDir, "dir", "", "folder of exam records (default QUESTION_JSON_DIR)")
	loadCmd.Flags().IntVar(&loadBatch, "batch", 500, "records per bulk write")
}

func runLoad(cmd *cobra.Command, _ []string) error {
	if err := cfg.ValidateMongo(); err != nil {
		return err
	}
	dir := loadDir
	if dir == "" {
		dir = cfg.Paths.QuestionJSON
	}
	paths, err := examstore.List(dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}

	ctx := cmd.Context()
	store, err := server.ConnectMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		return err
	}
	defer server.CloseAll(nil, store, logger)
	repo := store.Exams()

	batches := loadBatches(paths, loadBatch)
	var upserted, modified, failed int64
	for _, batch := range batches {
		exams := make([]*entity.Exam, 0, len(batch))
		for _, p := range batch {
			e, err := examstore.Load(p)
			if err != nil {
				logger.Error("load.read.failed", "path", p, "error", err)
				failed++
				continue
			}
			exams = append(exams, e)
		}
		if len(exams) == 0 {
			continue
		}
		res, err := repo.Upsert(ctx, exams)
		if err != nil {
			return err
		}
		upserted += res.Upserted
		modified += res.Modified
	}
	logger.Info("load.done", "files", len(paths), "upserted", upserted, "modified", modified, "failed", failed)
	return nil
}

func loadBatches(paths []string, size int) [][]string {
	if size <= 0 {
		size = len(paths)
	}
	var out [][]string
	for len(paths) > 0 {
		n := min(size, len(paths))
		out = append(out, paths[:n])
		paths = paths[n:]
	}
	return out
}
