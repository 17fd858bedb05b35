package main

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/freeseed/exams-tw/internal/examstore"
	"github.com/freeseed/exams-tw/internal/server"
)

func newRunID() string {
	return uuid.New().String()
}

// examSource picks MongoDB or the JSON folders. The returned func releases
// whatever was opened.
func examSource(ctx context.Context, source string) (server.ExamSource, func(), error) {
	switch strings.ToLower(source) {
	case "mongo":
		if err := cfg.ValidateMongo(); err != nil {
			return nil, nil, err
		}
		store, err := server.ConnectMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, nil, err
		}
		return store.Exams(), func() { server.CloseAll(nil, store, logger) }, nil
	default:
		return examstore.NewDir(logger, jsonDirs()...), func() {}, nil
	}
}

// jsonDirs lists the record folders, freshest first.
func jsonDirs() []string {
	return []string{cfg.Paths.QuestionJSON, cfg.Paths.JSONDone, cfg.Paths.JSONAll}
}

type filterFlags struct {
	year, examName, subject string
	parsedOnly              bool
	limit                   int
}

func (f filterFlags) filter() examstore.Filter {
	return examstore.Filter{
		Year:       f.year,
		ExamName:   f.examName,
		Subject:    f.subject,
		ParsedOnly: f.parsedOnly,
		Limit:      f.limit,
	}
}
