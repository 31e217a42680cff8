package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/miajio/wordtree/internal/config"
	"github.com/miajio/wordtree/pkg/badger"
	"github.com/miajio/wordtree/pkg/participle"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "wordtree",
	Short: "Probabilistic word-continuation trees from learned text",
	Long: `wordtree - learn word frequencies and word pairs from text, then grow
probabilistic continuation trees for a prompt.

The dictionary is stored in a badger database (db.dir in the config file).

Configuration is read from (first match wins):
  --config <file>
  $WORDTREE_CONFIG
  <user config dir>/wordtree/config.yaml

Every key can be overridden by env, e.g. WORDTREE_DB_DIR, WORDTREE_TREE_DEPTH.

Examples:
  # Learn from a file, one sentence per line
  wordtree learn corpus.txt

  # Show the most likely continuations of a prompt
  wordtree expand "the ca" --depth 3 --limit 10`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Interrupt cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// app 一次命令执行所需的配置, 日志和引擎
type app struct {
	cfg    config.Config
	logger *slog.Logger
	db     *badger.Engine
	engine *participle.Engine
}

// loadConfig 读取并校验配置
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openApp 打开数据库并加载词典, 调用方负责 Close
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cfg.Log.NewLogger(cmd.ErrOrStderr(), verbose)

	if !cfg.DB.InMemory {
		if err := os.MkdirAll(cfg.DB.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := badger.New(badger.Options{
		Dir:            cfg.DB.Dir,
		InMemory:       cfg.DB.InMemory,
		GCInterval:     cfg.DB.GCInterval,
		GCDiscardRatio: cfg.DB.GCDiscardRatio,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", cfg.DB.Dir, err)
	}

	var seg participle.Segmenter
	if cfg.Predict.Segmenter == "simple" {
		seg = participle.NewSimpleSegmenter()
	}
	engine, err := participle.New(db, participle.Options{
		Segmenter:     seg,
		Logger:        logger,
		MaxCandidates: cfg.Predict.MaxCandidates,
		DefaultPos:    cfg.Predict.DefaultPos,
	})
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}

	logger.Debug("wordtree ready", "db", cfg.DB.Dir, "in_memory", cfg.DB.InMemory)
	return &app{cfg: cfg, logger: logger, db: db, engine: engine}, nil
}

// Close 关闭引擎和数据库
func (a *app) Close() error {
	return a.engine.Close()
}
