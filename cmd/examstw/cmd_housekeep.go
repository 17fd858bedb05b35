package main

import (
	"github.com/spf13/cobra"

	"github.com/freeseed/exams-tw/internal/housekeeping"
	"github.com/freeseed/exams-tw/internal/server"
)

var housekeepNoMongo bool

// housekeepCmd archives loaded exam records.
var housekeepCmd = &cobra.Command{
	Use:   "housekeep",
	Short: "Archive loaded records and mark them parsed in MongoDB",
	Long: `Moves every record from QUESTION_JSON_DIR into QUESTION_JSON_DONE_DIR, deletes
same-named copies from QUESTION_JSON_ALL_DIR and sets parsed=true on the
moved ids in MongoDB.`,
	RunE: runHousekeep,
}

func init() {
	housekeepCmd.Flags().BoolVar(&housekeepNoMongo, "no-mongo", false, "only move files")
}

func runHousekeep(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	var marker housekeeping.ParsedMarker
	if !housekeepNoMongo {
		if err := cfg.ValidateMongo(); err != nil {
			return err
		}
		store, err := server.ConnectMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			return err
		}
		defer server.CloseAll(nil, store, logger)
		marker = store.Exams()
	}

	a := housekeeping.NewArchiver(housekeeping.Config{
		JSONDir: cfg.Paths.QuestionJSON,
		DoneDir: cfg.Paths.JSONDone,
		AllDir:  cfg.Paths.JSONAll,
	}, marker, logger)
	_, err := a.Run(ctx)
	return err
}
