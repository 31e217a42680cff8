package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀, 如 WORDTREE_DB_DIR
const EnvPrefix = "WORDTREE"

// Config 应用配置
type Config struct {
	DB      DBConfig      `mapstructure:"db"`
	Predict PredictConfig `mapstructure:"predict"`
	Tree    TreeConfig    `mapstructure:"tree"`
	Log     LogConfig     `mapstructure:"log"`
}

// DBConfig badger 配置
type DBConfig struct {
	Dir            string        `mapstructure:"dir"`
	InMemory       bool          `mapstructure:"in_memory"`
	GCInterval     time.Duration `mapstructure:"gc_interval"`
	GCDiscardRatio float64       `mapstructure:"gc_discard_ratio"`
}

// PredictConfig 续写候选配置
type PredictConfig struct {
	Segmenter     string `mapstructure:"segmenter"` // gse, simple
	MaxCandidates int    `mapstructure:"max_candidates"`
	DefaultPos    string `mapstructure:"default_pos"`
}

// TreeConfig 续写树展开配置
type TreeConfig struct {
	Depth          int     `mapstructure:"depth"`
	Workers        int     `mapstructure:"workers"`
	MinProbability float64 `mapstructure:"min_probability"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault("db.dir", filepath.Join(home, ".local", "share", "wordtree", "db"))
	v.SetDefault("db.in_memory", false)
	v.SetDefault("db.gc_interval", 5*time.Minute)
	v.SetDefault("db.gc_discard_ratio", 0.5)
	v.SetDefault("predict.segmenter", "gse")
	v.SetDefault("predict.max_candidates", 10)
	v.SetDefault("predict.default_pos", "nz")
	v.SetDefault("tree.depth", 3)
	v.SetDefault("tree.workers", 4)
	v.SetDefault("tree.min_probability", 0.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load 读取配置, path 为空时依次查找 $WORDTREE_CONFIG 和 ~/.config/wordtree/config.yaml
// 配置文件不存在时使用默认值, 环境变量优先于配置文件
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "wordtree"))
		}
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 显式指定的文件必须存在
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Validate 检查配置范围
func (c Config) Validate() error {
	if !c.DB.InMemory && c.DB.Dir == "" {
		return fmt.Errorf("db.dir is required unless db.in_memory is set")
	}
	if c.DB.GCDiscardRatio <= 0 || c.DB.GCDiscardRatio >= 1 {
		return fmt.Errorf("db.gc_discard_ratio must be in (0, 1), got %v", c.DB.GCDiscardRatio)
	}
	switch c.Predict.Segmenter {
	case "gse", "simple":
	default:
		return fmt.Errorf("predict.segmenter must be gse or simple, got %q", c.Predict.Segmenter)
	}
	if c.Predict.MaxCandidates <= 0 {
		return fmt.Errorf("predict.max_candidates must be positive, got %d", c.Predict.MaxCandidates)
	}
	if c.Tree.Depth < 0 {
		return fmt.Errorf("tree.depth must not be negative, got %d", c.Tree.Depth)
	}
	if c.Tree.MinProbability < 0 || c.Tree.MinProbability > 1 {
		return fmt.Errorf("tree.min_probability must be in [0, 1], got %v", c.Tree.MinProbability)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger 按配置创建 slog 日志, verbose 时强制 debug
func (c LogConfig) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
