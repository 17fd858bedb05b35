package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/genai"
)

// Config for the Gemini client.
type Config struct {
	APIKey        string  // if empty, falls back to env GOOGLE_API_KEY
	QuestionModel string  // model for question papers
	AnswerModel   string  // model for answer sheets
	Temperature   float32 // 0..2
	Timeout       time.Duration
}

// Generator is the slice of the genai Models service the client calls.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	cfg Config
	gen Generator
	log *slog.Logger
}

func (c *Config) defaults() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if c.QuestionModel == "" {
		c.QuestionModel = "gemini-2.5-pro-exp-03-25"
	}
	if c.AnswerModel == "" {
		c.AnswerModel = "gemini-2.0-flash"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
}

// NewClient connects to the Gemini API.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	cfg.defaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return NewWithGenerator(cfg, gc.Models, logger), nil
}

// NewWithGenerator builds a client over an existing generator.
func NewWithGenerator(cfg Config, gen Generator, logger *slog.Logger) *Client {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, gen: gen, log: logger.With("component", "gemini")}
}
