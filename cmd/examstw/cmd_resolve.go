package main

import (
	"github.com/spf13/cobra"

	"github.com/freeseed/exams-tw/internal/common"
	"github.com/freeseed/exams-tw/internal/download"
	"github.com/freeseed/exams-tw/internal/llm/gemini"
	processor "github.com/freeseed/exams-tw/internal/pipeline"
	"github.com/freeseed/exams-tw/internal/resolver"
)

var (
	resolveDir  string
	resolveFile string
	resolveMin  int
)

// resolveCmd fills exam records the heuristics could not read, using Gemini.
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Fill 題庫 with the Gemini resolver",
	Long: `Sends the question and answer PDFs of every exam record with fewer than
--min questions to Gemini and writes the merged result back. Records whose
question and answer counts differ are left untouched. Requires GOOGLE_API_KEY.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveDir, "dir", "", "folder of exam records (default QUESTION_JSON_DIR)")
	resolveCmd.Flags().StringVar(&resolveFile, "file", "", "resolve a single exam record")
	resolveCmd.Flags().IntVar(&resolveMin, "min", 0, "skip records with at least this many questions (default GEMINI_MIN_QUESTIONS)")
}

func runResolve(cmd *cobra.Command, _ []string) error {
	if err := cfg.ValidateGemini(); err != nil {
		return err
	}
	ctx := common.WithRunID(cmd.Context(), newRunID())

	client, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:        cfg.Gemini.APIKey,
		QuestionModel: cfg.Gemini.QuestionModel,
		AnswerModel:   cfg.Gemini.AnswerModel,
		Temperature:   cfg.Gemini.Temperature,
		Timeout:       cfg.Gemini.Timeout,
	}, logger)
	if err != nil {
		return err
	}
	fetcher := download.NewFetcher(download.Config{
		Timeout:   cfg.Download.Timeout,
		UserAgent: cfg.Download.UserAgent,
	}, nil, logger)

	minQ := cfg.Gemini.MinQuestions
	if resolveMin > 0 {
		minQ = resolveMin
	}
	res := resolver.New(resolver.Config{BankDir: cfg.Paths.QuestionBank, MinQuestions: minQ}, client, fetcher, logger)

	jobs, closeJobs, err := openJobs(ctx)
	if err != nil {
		return err
	}
	defer closeJobs()

	p := processor.NewProcessor(logger, jobs, nil, nil, cfg.Paths.QuestionBank)
	p.Resolver = res

	if resolveFile != "" {
		out, err := p.ResolveFile(ctx, resolveFile)
		logger.Info("resolve.file.done", "exam_id", out.ExamID, "status", out.Status,
			"questions", out.Questions, "reason", out.Reason)
		return err
	}
	dir := resolveDir
	if dir == "" {
		dir = cfg.Paths.QuestionJSON
	}
	_, err = p.ProcessDir(ctx, dir, p.ResolveFile)
	return err
}
