package common

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Paths    PathsConfig
	Download DownloadConfig
	Mongo    MongoConfig
	Ledger   LedgerConfig
	Gemini   GeminiConfig
	Server   ServerConfig
	Log      LogConfig
}

// PathsConfig holds the folder layout shared by every command
type PathsConfig struct {
	CatalogCSV   string
	QuestionBank string
	QuestionJSON string
	JSONDone     string
	JSONAll      string
	Images       string
	LayoutRules  string
}

// DownloadConfig holds HTTP fetch settings
type DownloadConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// MongoConfig holds document store settings
type MongoConfig struct {
	URI        string
	User       string
	Password   string
	Host       string
	Database   string
	Collection string
	Timeout    time.Duration
}

// LedgerConfig holds the extraction-job database settings
type LedgerConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// GeminiConfig holds model resolver settings
type GeminiConfig struct {
	APIKey        string
	QuestionModel string
	AnswerModel   string
	Temperature   float32
	Timeout       time.Duration
	MinQuestions  int
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// LogConfig holds logging configuration
type LogConfig struct {
	File  string
	Level string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			CatalogCSV:   getEnv("CATALOG_CSV", "url.csv"),
			QuestionBank: getEnv("QUESTION_BANK_DIR", "question_bank"),
			QuestionJSON: getEnv("QUESTION_JSON_DIR", "question_json"),
			JSONDone:     getEnv("QUESTION_JSON_DONE_DIR", "question_json_done"),
			JSONAll:      getEnv("QUESTION_JSON_ALL_DIR", "question_json_all"),
			Images:       getEnv("QUESTION_IMAGES_DIR", "question_images"),
			LayoutRules:  getEnv("LAYOUT_RULES", ""),
		},
		Download: DownloadConfig{
			Timeout:   getEnvAsDuration("DOWNLOAD_TIMEOUT", 30*time.Second),
			UserAgent: getEnv("DOWNLOAD_USER_AGENT", ""),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGO_URI", ""),
			User:       getEnv("MONGO_ID", ""),
			Password:   getEnv("MONGO_PW", ""),
			Host:       getEnv("MONGO_HOST", "cluster0.lvdufzc.mongodb.net"),
			Database:   getEnv("MONGO_DB", "freeseed"),
			Collection: getEnv("MONGO_COLLECTION", "exams"),
			Timeout:    getEnvAsDuration("MONGO_TIMEOUT", 10*time.Second),
		},
		Ledger: LedgerConfig{
			DSN:             getEnv("LEDGER_DSN", "file:"+filepath.Join("logs", "ledger.db")),
			MaxConns:        getEnvAsInt32("LEDGER_MAX_CONNS", 4),
			MinConns:        getEnvAsInt32("LEDGER_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("LEDGER_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("LEDGER_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("LEDGER_DIAL_TIMEOUT", 3*time.Second),
		},
		Gemini: GeminiConfig{
			APIKey:        getEnv("GOOGLE_API_KEY", ""),
			QuestionModel: getEnv("GEMINI_QUESTION_MODEL", "gemini-2.5-pro-exp-03-25"),
			AnswerModel:   getEnv("GEMINI_ANSWER_MODEL", "gemini-2.0-flash"),
			Temperature:   getEnvAsFloat32("GEMINI_TEMPERATURE", 0.0),
			Timeout:       getEnvAsDuration("GEMINI_TIMEOUT", 5*time.Minute),
			MinQuestions:  getEnvAsInt("GEMINI_MIN_QUESTIONS", 20),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Log: LogConfig{
			File:  getEnv("LOG_FILE", ""),
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// MongoURI returns MONGO_URI, or the Atlas URI assembled from MONGO_ID/MONGO_PW.
func (c MongoConfig) MongoURI() string {
	if c.URI != "" {
		return c.URI
	}
	if c.User == "" || c.Password == "" {
		return ""
	}
	return "mongodb+srv://" + c.User + ":" + c.Password + "@" + c.Host + "/"
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateMongo checks what the load/housekeep/serve commands need.
func (c *Config) ValidateMongo() error {
	if c.Mongo.MongoURI() == "" {
		return &ConfigError{Var: "MONGO_URI", Message: "MONGO_URI or MONGO_ID/MONGO_PW is required"}
	}
	v := NewValidator().
		Field("MONGO_DB", c.Mongo.Database, Required).
		Field("MONGO_COLLECTION", c.Mongo.Collection, Required)
	if v.HasErrors() {
		return &ConfigError{Message: v.ErrorMessage()}
	}
	return nil
}

// ValidateGemini checks what the resolve command needs.
func (c *Config) ValidateGemini() error {
	if c.Gemini.APIKey == "" {
		return &ConfigError{Var: "GOOGLE_API_KEY", Message: "required"}
	}
	return nil
}

// ValidateServer checks what the serve command needs.
func (c *Config) ValidateServer() error {
	if c.Server.GRPCAddr == "" {
		return &ConfigError{Var: "GRPC_ADDR", Message: "required"}
	}
	return nil
}
