package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/freeseed/exams-tw/internal/common"
	"github.com/freeseed/exams-tw/internal/entity"
	"github.com/freeseed/exams-tw/internal/examstore"
)

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// UpsertResult counts the outcome of a bulk upsert.
type UpsertResult struct {
	Matched  int64
	Modified int64
	Upserted int64
}

// ExamRepository stores finished exam records in the document store.
type ExamRepository interface {
	Upsert(ctx context.Context, exams []*entity.Exam) (UpsertResult, error)
	MarkParsed(ctx context.Context, ids []string) (matched, modified int64, err error)
	Get(ctx context.Context, id string) (*entity.Exam, error)
	List(ctx context.Context, f examstore.Filter) ([]entity.Exam, error)
	Count(ctx context.Context, f examstore.Filter) (int64, error)
}

// MongoStore owns the client behind an ExamRepository.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    *slog.Logger
}

// OpenMongo connects and pings the primary.
func OpenMongo(ctx context.Context, cfg MongoConfig, log *slog.Logger) (*MongoStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: mongo uri is empty", common.ErrInvalidInput)
	}
	opts := options.Client().ApplyURI(cfg.URI).SetAppName("exams-tw")
	if cfg.Timeout > 0 {
		opts.SetTimeout(cfg.Timeout)
	}
	client, err := mongo.Connect(opts)
	if err != nil {
		log.Error("failed to connect to mongo", "error", err)
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		log.Error("mongo ping failed", "error", err)
		return nil, err
	}
	log.Info("successfully connected to mongo", "database", cfg.Database, "collection", cfg.Collection)
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		log:    log,
	}, nil
}

func (s *MongoStore) Exams() ExamRepository {
	return &examRepo{coll: s.coll, log: s.log}
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	s.log.Info("closing mongo connection")
	return s.client.Disconnect(ctx)
}

type examRepo struct {
	coll *mongo.Collection
	log  *slog.Logger
}

func NewExamRepository(coll *mongo.Collection, log *slog.Logger) ExamRepository {
	if log == nil {
		log = slog.Default()
	}
	return &examRepo{coll: coll, log: log}
}

// Upsert replaces every exam by id, inserting the missing ones. Writes are
// unordered so one bad document does not stop the rest.
func (r *examRepo) Upsert(ctx context.Context, exams []*entity.Exam) (UpsertResult, error) {
	if len(exams) == 0 {
		return UpsertResult{}, nil
	}
	models := make([]mongo.WriteModel, 0, len(exams))
	for _, e := range exams {
		e.Normalize()
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "id", Value: e.ID}}).
			SetReplacement(e).
			SetUpsert(true))
	}
	res, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		r.log.Error("exams.upsert.failed", "count", len(exams), "error", err)
		return UpsertResult{}, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	out := UpsertResult{Matched: res.MatchedCount, Modified: res.ModifiedCount, Upserted: res.UpsertedCount}
	r.log.Info("exams.upsert.ok", "count", len(exams), "matched", out.Matched, "modified", out.Modified, "upserted", out.Upserted)
	return out, nil
}

func (r *examRepo) MarkParsed(ctx context.Context, ids []string) (int64, int64, error) {
	if len(ids) == 0 {
		return 0, 0, nil
	}
	res, err := r.coll.UpdateMany(ctx,
		bson.D{{Key: "id", Value: bson.D{{Key: "$in", Value: ids}}}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "parsed", Value: true}}}},
	)
	if err != nil {
		r.log.Error("exams.mark_parsed.failed", "count", len(ids), "error", err)
		return 0, 0, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	r.log.Info("exams.mark_parsed.ok", "ids", len(ids), "matched", res.MatchedCount, "modified", res.ModifiedCount)
	return res.MatchedCount, res.ModifiedCount, nil
}

func (r *examRepo) Get(ctx context.Context, id string) (*entity.Exam, error) {
	var e entity.Exam
	err := r.coll.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("exam %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return &e, nil
}

func (r *examRepo) List(ctx context.Context, f examstore.Filter) ([]entity.Exam, error) {
	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := r.coll.Find(ctx, mongoFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	var out []entity.Exam
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *examRepo) Count(ctx context.Context, f examstore.Filter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, mongoFilter(f))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return n, nil
}

// mongoFilter mirrors examstore.Filter.Matches.
func mongoFilter(f examstore.Filter) bson.D {
	d := bson.D{}
	if f.Year != "" {
		d = append(d, bson.E{Key: "考試年度", Value: f.Year})
	}
	if f.ExamName != "" {
		d = append(d, bson.E{Key: "考試名稱", Value: bson.Regex{Pattern: regexp.QuoteMeta(f.ExamName)}})
	}
	if f.Subject != "" {
		d = append(d, bson.E{Key: "科目全名", Value: bson.Regex{Pattern: regexp.QuoteMeta(f.Subject)}})
	}
	if f.ParsedOnly {
		d = append(d, bson.E{Key: "parsed", Value: true})
	}
	return d
}
