package main

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/inkfinity/backend/common/logger"
	"github.com/inkfinity/backend/config"
	"github.com/inkfinity/backend/database"
	awspkg "github.com/inkfinity/backend/pkg/aws"
	"github.com/inkfinity/backend/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// Global flags
	configFile string
	verbose    bool

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Inkfinity catalog administration",
	Long: `catalogctl runs one-off maintenance against the Inkfinity backend
using the same configuration as the API (.env, CONFIG_FILE and the
environment).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
				return err
			}
		}
		loaded, err := config.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		cfg = loaded

		env := "production"
		if verbose {
			env = "development"
		}
		log, err = logger.New(env)
		return err
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// openPostgres connects without migrating; the API owns the schema.
func openPostgres(ctx context.Context) (*gorm.DB, error) {
	return database.ConnectPostgres(ctx, cfg.Database.DSN(), log)
}

func loadAWS(ctx context.Context) (sdkaws.Config, error) {
	return awspkg.LoadAWSConfig(ctx, cfg.AWSOptions())
}

// openProducts returns the product store for the configured catalog
// backend. The returned func releases it.
func openProducts(ctx context.Context) (repository.ProductRepo, func(), error) {
	if cfg.Catalog.Backend == config.BackendDynamoDB {
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, nil, err
		}
		client := database.NewDynamoClient(awsCfg, cfg.AWS.Endpoint)
		categories := repository.NewDynamoCategoryRepository(client, cfg.Catalog.CategoriesTable)
		return repository.NewDynamoProductRepository(client, cfg.Catalog.ProductsTable, categories), func() {}, nil
	}

	db, err := openPostgres(ctx)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewGormProductRepository(db), func() { _ = database.Close(db) }, nil
}
