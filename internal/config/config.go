package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	LLM       LLMConfig
	S3        S3Config
	Paths     PathsConfig
	Pipeline  PipelineConfig
	Render    RenderConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

// LLMConfig selects the model provider used by the pipeline stages.
type LLMConfig struct {
	Provider     string // "groq" or "google"
	GroqAPIKey   string
	GroqBaseURL  string
	GroqModel    string
	GeminiAPIKey string
	GeminiModel  string
}

// S3Config points at the MinIO/S3 endpoint backing the remote artifact tier.
type S3Config struct {
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// PathsConfig holds the local output directories. Directories are created by
// an explicit Ensure call from main, never as a load side effect.
type PathsConfig struct {
	OutputsDir string
	NotesDir   string
	FramesDir  string
	VideosDir  string
}

// Ensure creates the output directory tree.
func (p *PathsConfig) Ensure() error {
	for _, dir := range []string{p.OutputsDir, p.NotesDir, p.FramesDir, p.VideosDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// PipelineConfig carries the run defaults for chunking and scheduling.
type PipelineConfig struct {
	NumChunks     int
	MaxTokens     int
	OverlapItems  int
	MaxConcurrent int
}

// RateLimitConfig caps per-user request rates on expensive endpoints.
type RateLimitConfig struct {
	RunsPerHour int
}

// RenderConfig configures the markdown-to-PDF converter binary.
type RenderConfig struct {
	ConverterBin string
	FFmpegBin    string
	FFprobeBin   string
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("GROQ_API_KEY")
	readSecret("GEMINI_API_KEY")
	readSecret("S3_ACCESS_KEY_ID")
	readSecret("S3_SECRET_ACCESS_KEY")
	readSecret("JWT_SECRET")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("llm.provider", "LLM_PROVIDER")
	_ = viper.BindEnv("llm.groq_api_key", "GROQ_API_KEY")
	_ = viper.BindEnv("llm.groq_base_url", "GROQ_BASE_URL")
	_ = viper.BindEnv("llm.groq_model", "GROQ_MODEL")
	_ = viper.BindEnv("llm.gemini_api_key", "GEMINI_API_KEY")
	_ = viper.BindEnv("llm.gemini_model", "GEMINI_MODEL")
	_ = viper.BindEnv("s3.endpoint_url", "S3_ENDPOINT_URL")
	_ = viper.BindEnv("s3.access_key_id", "S3_ACCESS_KEY_ID")
	_ = viper.BindEnv("s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("s3.bucket_name", "S3_BUCKET_NAME")
	_ = viper.BindEnv("s3.use_ssl", "S3_USE_SSL")
	_ = viper.BindEnv("paths.outputs_dir", "OUTPUTS_DIR")
	_ = viper.BindEnv("pipeline.num_chunks", "PIPELINE_NUM_CHUNKS")
	_ = viper.BindEnv("pipeline.max_tokens", "PIPELINE_MAX_TOKENS")
	_ = viper.BindEnv("pipeline.overlap_items", "PIPELINE_OVERLAP_ITEMS")
	_ = viper.BindEnv("pipeline.max_concurrent", "PIPELINE_MAX_CONCURRENT")
	_ = viper.BindEnv("ratelimit.runs_per_hour", "RATELIMIT_RUNS_PER_HOUR")
	_ = viper.BindEnv("render.converter_bin", "MD_TO_PDF_BIN")
	_ = viper.BindEnv("render.ffmpeg_bin", "FFMPEG_BIN")
	_ = viper.BindEnv("render.ffprobe_bin", "FFPROBE_BIN")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)

	// LLM defaults
	viper.SetDefault("llm.provider", "google")
	viper.SetDefault("llm.groq_base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("llm.groq_model", "llama-3.3-70b-versatile")
	viper.SetDefault("llm.gemini_model", "gemini-2.0-flash")

	// Object storage defaults (MinIO in development)
	viper.SetDefault("s3.endpoint_url", "http://localhost:9000")
	viper.SetDefault("s3.bucket_name", "vidscribe")
	viper.SetDefault("s3.use_ssl", false)

	// Output paths
	viper.SetDefault("paths.outputs_dir", "outputs")

	// Pipeline defaults
	viper.SetDefault("pipeline.num_chunks", 2)
	viper.SetDefault("pipeline.max_tokens", 0)
	viper.SetDefault("pipeline.overlap_items", 5)
	viper.SetDefault("pipeline.max_concurrent", 4)

	// Rate limit defaults
	viper.SetDefault("ratelimit.runs_per_hour", 10)

	// Render defaults
	viper.SetDefault("render.converter_bin", "md-to-pdf")
	viper.SetDefault("render.ffmpeg_bin", "ffmpeg")
	viper.SetDefault("render.ffprobe_bin", "ffprobe")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	outputsDir := viper.GetString("paths.outputs_dir")

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		LLM: LLMConfig{
			Provider:     viper.GetString("llm.provider"),
			GroqAPIKey:   viper.GetString("llm.groq_api_key"),
			GroqBaseURL:  viper.GetString("llm.groq_base_url"),
			GroqModel:    viper.GetString("llm.groq_model"),
			GeminiAPIKey: viper.GetString("llm.gemini_api_key"),
			GeminiModel:  viper.GetString("llm.gemini_model"),
		},
		S3: S3Config{
			EndpointURL:     viper.GetString("s3.endpoint_url"),
			AccessKeyID:     viper.GetString("s3.access_key_id"),
			SecretAccessKey: viper.GetString("s3.secret_access_key"),
			BucketName:      viper.GetString("s3.bucket_name"),
			UseSSL:          viper.GetBool("s3.use_ssl"),
		},
		Paths: PathsConfig{
			OutputsDir: outputsDir,
			NotesDir:   filepath.Join(outputsDir, "notes"),
			FramesDir:  filepath.Join(outputsDir, "frames"),
			VideosDir:  filepath.Join(outputsDir, "videos"),
		},
		Pipeline: PipelineConfig{
			NumChunks:     viper.GetInt("pipeline.num_chunks"),
			MaxTokens:     viper.GetInt("pipeline.max_tokens"),
			OverlapItems:  viper.GetInt("pipeline.overlap_items"),
			MaxConcurrent: viper.GetInt("pipeline.max_concurrent"),
		},
		Render: RenderConfig{
			ConverterBin: viper.GetString("render.converter_bin"),
			FFmpegBin:    viper.GetString("render.ffmpeg_bin"),
			FFprobeBin:   viper.GetString("render.ffprobe_bin"),
		},
		RateLimit: RateLimitConfig{
			RunsPerHour: viper.GetInt("ratelimit.runs_per_hour"),
		},
	}

	return cfg, nil
}
