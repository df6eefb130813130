package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pixel-board/internal/domain"
	"pixel-board/internal/render"
	"pixel-board/internal/service"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the settings read from the environment and the editor file.
type Config struct {
	DBUser          string
	DBPassword      string
	DBHost          string
	DBPort          string
	DBName          string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	JWTSecret       string
	ServerPort      string
	LogLevel        string
	RateLimitMax    int
	RateLimitWindow time.Duration
	JWTExpiryHours  int
	AppEnv          string // development or production
	KeyPrefix       string // prefix of every Redis key
	AllowedOrigin   string // CORS and WebSocket origin; empty on the socket accepts any
	WorkerCount     int

	GridSize int
	Editor   service.EditorConfig
}

// EditorFile is the YAML editor file named by EDITOR_CONFIG.
type EditorFile struct {
	GridSize        int    `yaml:"grid_size"`
	CellPixelSize   int    `yaml:"cell_pixel_size"`
	BackgroundMode  string `yaml:"background_mode"`
	HistoryCapacity int    `yaml:"history_capacity"`
	FillModeEnabled bool   `yaml:"fill_mode_enabled"`
	BackgroundColor string `yaml:"background_color"`
	ExportFormat    string `yaml:"export_format"`
	ExportFileName  string `yaml:"export_file_name"`
}

// DefaultEditorFile returns the stock editor settings.
func DefaultEditorFile() EditorFile {
	return EditorFile{
		GridSize:        domain.DefaultGridSize,
		CellPixelSize:   render.DefaultCellPixelSize,
		BackgroundMode:  string(render.BackgroundTransparent),
		HistoryCapacity: domain.DefaultHistoryCapacity,
		BackgroundColor: "#ffffff",
		ExportFormat:    string(render.FormatPNG),
		ExportFileName:  render.DefaultFileName,
	}
}

// LoadConfig reads .env (if present), the environment and the optional
// editor file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // plain environment variables are enough

	cfg := &Config{
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBHost:          os.Getenv("DB_HOST"),
		DBPort:          os.Getenv("DB_PORT"),
		DBName:          os.Getenv("DB_NAME"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		ServerPort:      os.Getenv("SERVER_PORT"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		AppEnv:          os.Getenv("APP_ENV"),
		KeyPrefix:       os.Getenv("REDIS_KEY_PREFIX"),
		AllowedOrigin:   os.Getenv("CORS_ALLOWED_ORIGIN"),
		RateLimitMax:    envInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow: time.Second,
		JWTExpiryHours:  envInt("JWT_EXPIRY_HOURS", 24),
		WorkerCount:     envInt("WORKER_CONCURRENCY", 10),
	}
	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB")) // defaults to 0

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "pb:"
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	file := DefaultEditorFile()
	if path := os.Getenv("EDITOR_CONFIG"); path != "" {
		var err error
		if file, err = ReadEditorFile(path); err != nil {
			return nil, err
		}
	}
	file = applyEditorEnv(file)

	editorCfg, err := file.EditorConfig()
	if err != nil {
		return nil, err
	}
	cfg.GridSize = file.GridSize
	cfg.Editor = editorCfg
	return cfg, nil
}

// ReadEditorFile parses the YAML file at path on top of the defaults.
func ReadEditorFile(path string) (EditorFile, error) {
	file := DefaultEditorFile()
	data, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("read editor config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse editor config %s: %w", path, err)
	}
	return file, nil
}

func applyEditorEnv(file EditorFile) EditorFile {
	file.GridSize = envInt("GRID_SIZE", file.GridSize)
	file.CellPixelSize = envInt("CELL_PIXEL_SIZE", file.CellPixelSize)
	file.HistoryCapacity = envInt("HISTORY_CAPACITY", file.HistoryCapacity)
	if v := os.Getenv("BACKGROUND_MODE"); v != "" {
		file.BackgroundMode = v
	}
	if v := os.Getenv("FILL_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			file.FillModeEnabled = b
		} else {
			logrus.Warnf("Invalid FILL_MODE '%s', keeping %t", v, file.FillModeEnabled)
		}
	}
	return file
}

// EditorConfig validates the file and converts it for the editor service.
func (f EditorFile) EditorConfig() (service.EditorConfig, error) {
	cfg := service.DefaultEditorConfig()
	if f.GridSize <= 0 {
		return cfg, fmt.Errorf("%w: grid_size %d", domain.ErrInvalidSize, f.GridSize)
	}
	if f.CellPixelSize <= 0 || f.CellPixelSize > render.MaxRasterSide/f.GridSize {
		return cfg, fmt.Errorf("%w: cell_pixel_size %d", render.ErrInvalidOptions, f.CellPixelSize)
	}
	mode, err := render.ParseBackgroundMode(f.BackgroundMode)
	if err != nil {
		return cfg, err
	}
	format, err := render.ParseFormat(f.ExportFormat)
	if err != nil {
		return cfg, err
	}
	var bg domain.Cell
	if strings.TrimSpace(f.BackgroundColor) != "" {
		if bg, err = domain.ParseCell(f.BackgroundColor); err != nil {
			return cfg, fmt.Errorf("background_color: %w", err)
		}
	}

	if f.HistoryCapacity > 0 {
		cfg.HistoryCapacity = f.HistoryCapacity
	}
	cfg.FillMode = f.FillModeEnabled
	cfg.Render.CellPixelSize = f.CellPixelSize
	cfg.Render.Background = mode
	cfg.Render.BackgroundColor = bg
	cfg.ExportFormat = format
	if f.ExportFileName != "" {
		cfg.ExportFileName = f.ExportFileName
	}
	return cfg, nil
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.Warnf("Invalid %s '%s', using %d", key, v, fallback)
		return fallback
	}
	return n
}
