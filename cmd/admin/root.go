package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/anonto42/preschool-social/backend/internal/realtime"
	"github.com/anonto42/preschool-social/backend/internal/router"
	"github.com/anonto42/preschool-social/backend/pkg/config"
	"github.com/anonto42/preschool-social/backend/pkg/logger"
)

var (
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Operator tasks for the preschool social backend",
	Long: `admin runs maintenance against the same stores the server uses.
Configuration is read from the environment and an optional .env file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		env := "production"
		if verbose {
			env = "development"
		}
		return logger.Init(env)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// stores opens the configured stores; the caller closes them.
type stores struct {
	cfg   *config.Config
	db    *config.DB
	mongo *mongo.Database
	bus   *realtime.Bus
}

func openStores() (*stores, error) {
	cfg := config.Load()
	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	s := &stores{cfg: cfg, db: db, bus: realtime.NewBus(logger.L())}
	if db.Mongo != nil {
		s.mongo = db.Mongo.Database(cfg.MongoDatabase)
	}
	return s, nil
}

func (s *stores) services() *router.Services {
	return router.NewServices(router.Dependencies{
		SQL:       s.db.SQL,
		Mongo:     s.mongo,
		Bus:       s.bus,
		JWTSecret: s.cfg.JWTSecret,
		FeedLimit: s.cfg.FeedLimit,
	})
}

func (s *stores) Close() {
	if err := s.bus.Close(); err != nil {
		logger.Warn("close bus", zap.Error(err))
	}
	s.db.CloseDB()
}
