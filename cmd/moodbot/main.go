package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/glebk/moodbot/internal/config"
	"github.com/glebk/moodbot/internal/domain"
	"github.com/glebk/moodbot/internal/logging"
	"github.com/glebk/moodbot/internal/repository/memory"
	"github.com/glebk/moodbot/internal/repository/sqlite"
	"github.com/glebk/moodbot/internal/service"
)

// app holds the dependencies shared by all commands
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *sqlite.Database
	moodLog *service.MoodLog
	engine  *service.ScreeningEngine
}

// flags of the root command
type rootFlags struct {
	dbPath   string
	inMemory bool
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	a := &app{}

	root := &cobra.Command{
		Use:   "moodbot",
		Short: "Mood tracking and self-screening Telegram bot",
		Long: `moodbot keeps a private mood log with a month calendar and runs short
depression and anxiety self-screenings.

Run "moodbot serve" to start the Telegram bot, or use the other commands
to work with the same data from a terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "SQLite database path (overrides DATABASE_PATH)")
	root.PersistentFlags().BoolVar(&flags.inMemory, "memory", false, "Keep data in memory only")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	root.AddCommand(
		newServeCmd(a),
		newMoodCmd(a),
		newScreenCmd(a),
		newTiersCmd(a),
	)

	return root
}

// setup loads configuration and opens storage
func (a *app) setup(flags rootFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flags.dbPath != "" {
		cfg.DatabasePath = flags.dbPath
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger

	var store domain.KVStore
	if flags.inMemory {
		store = memory.NewKVStore()
		logger.Info("Using in-memory storage")
	} else {
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.db = db
		store = sqlite.NewKVStore(db)
		logger.Debug("Database initialized", zap.String("path", cfg.DatabasePath))
	}

	bank, err := service.LoadQuestionBank(cfg.QuestionBankPath)
	if err != nil {
		return err
	}

	a.moodLog = service.NewMoodLog(store, cfg.StorageKeys, service.SystemClock{Location: cfg.Location}, logger)
	a.engine = service.NewScreeningEngine(bank)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil && a.logger != nil {
			a.logger.Warn("Error closing database", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
