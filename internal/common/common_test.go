package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGO_ID", "")
	t.Setenv("GEMINI_MIN_QUESTIONS", "")
	t.Setenv("DOWNLOAD_TIMEOUT", "5s")

	cfg := LoadConfig()
	assert.Equal(t, "question_bank", cfg.Paths.QuestionBank)
	assert.Equal(t, "freeseed", cfg.Mongo.Database)
	assert.Equal(t, "exams", cfg.Mongo.Collection)
	assert.Equal(t, 20, cfg.Gemini.MinQuestions)
	assert.Equal(t, 5*time.Second, cfg.Download.Timeout)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.AnswerModel)
}

func TestMongoURI(t *testing.T) {
	c := MongoConfig{User: "u", Password: "p", Host: "cluster0.example.net"}
	assert.Equal(t, "mongodb+srv://u:p@cluster0.example.net/", c.MongoURI())

	c.URI = "mongodb://localhost:27017"
	assert.Equal(t, "mongodb://localhost:27017", c.MongoURI())

	assert.Empty(t, MongoConfig{User: "u"}.MongoURI())
}

func TestValidateMongo(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateMongo()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	cfg.Mongo = MongoConfig{URI: "mongodb://x", Database: "freeseed"}
	err = cfg.ValidateMongo()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_COLLECTION")

	cfg.Mongo.Collection = "exams"
	assert.NoError(t, cfg.ValidateMongo())
}

func TestToStatus(t *testing.T) {
	assert.Nil(t, ToStatus(nil, "x"))
	assert.Equal(t, codes.NotFound, status.Code(ToStatus(WrapError(ErrNotFound, "get"), "missing")))
	assert.Equal(t, codes.InvalidArgument, status.Code(ToStatus(&ConfigError{Var: "X", Message: "bad"}, "bad")))
	assert.Equal(t, codes.FailedPrecondition, status.Code(ToStatus(fmt.Errorf("fse00000001: %w", ErrBadRecord), "bad record")))
	assert.Equal(t, codes.Unavailable, status.Code(ToStatus(WrapError(ErrDatabase, "list"), "down")))
	assert.Equal(t, codes.Internal, status.Code(ToStatus(errors.New("boom"), "boom")))
}

func TestConfigError(t *testing.T) {
	err := (&Config{}).ValidateGemini()
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "GOOGLE_API_KEY", ce.Var)
	assert.Equal(t, "config GOOGLE_API_KEY: required", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("id", "fse00000001", Required, FSEID).
		Field("other", "fse1", FSEID).
		Field("job", "not-a-uuid", UUID)
	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 2)
	assert.Equal(t, codes.InvalidArgument, status.Code(ValidateAndReturnError(v)))
	assert.NoError(t, ValidateAndReturnError(NewValidator().Field("x", "y", Required)))
}

func TestLoggerFrom(t *testing.T) {
	ctx := WithExamID(WithRunID(context.Background(), "run-1"), "fse00000002")
	assert.Equal(t, "run-1", RunIDFromContext(ctx))
	assert.Equal(t, "fse00000002", ExamIDFromContext(ctx))
	assert.NotNil(t, LoggerFrom(ctx, nil))
	assert.Empty(t, RunIDFromContext(context.Background()))
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	logger, closer, err := NewLogger(path, "debug")
	require.NoError(t, err)
	logger.Debug("hello", "k", "v")
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "msg=hello")
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
