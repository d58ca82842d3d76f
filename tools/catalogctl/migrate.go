package main

import (
	"fmt"

	"github.com/inkfinity/backend/database"
	"github.com/inkfinity/backend/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dryRun bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy categories and products from PostgreSQL to DynamoDB",
	Long: `Copy every category and product from PostgreSQL into the DynamoDB
tables named by DYNAMODB_CATEGORIES_TABLE and DYNAMODB_PRODUCTS_TABLE.

Items are written with BatchWriteItem, so existing items with the same id
are overwritten. Trending flags and order are copied as they are.

Examples:
  catalogctl migrate             # Copy everything
  catalogctl migrate --dry-run   # Only count what would be copied`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Read from PostgreSQL without writing to DynamoDB")
}

func runMigrate(cmd *cobra.Command) error {
	ctx := cmd.Context()

	db, err := openPostgres(ctx)
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	defer database.Close(db)

	categories, err := repository.NewGormCategoryRepository(db).FindAll(ctx)
	if err != nil {
		return fmt.Errorf("read categories: %w", err)
	}
	products, err := repository.NewGormProductRepository(db).ListProductsByName(ctx)
	if err != nil {
		return fmt.Errorf("read products: %w", err)
	}

	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "would copy %d categories and %d products\n", len(categories), len(products))
		return nil
	}

	awsCfg, err := loadAWS(ctx)
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}
	client := database.NewDynamoClient(awsCfg, cfg.AWS.Endpoint)
	ddbCategories := repository.NewDynamoCategoryRepository(client, cfg.Catalog.CategoriesTable)
	ddbProducts := repository.NewDynamoProductRepository(client, cfg.Catalog.ProductsTable, ddbCategories)

	if err := ddbCategories.CreateMany(ctx, categories); err != nil {
		return fmt.Errorf("write categories: %w", err)
	}
	log.Info("categories copied", zap.Int("count", len(categories)))

	if err := ddbProducts.CreateMany(ctx, products); err != nil {
		return fmt.Errorf("write products: %w", err)
	}
	log.Info("products copied", zap.Int("count", len(products)))

	fmt.Fprintf(cmd.OutOrStdout(), "copied %d categories and %d products\n", len(categories), len(products))
	return nil
}
