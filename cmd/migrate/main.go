package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	pgstore "stayaway/internal/infra/db/postgres"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Postgres schema tool",
	}

	rootCmd.AddCommand(upCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func upCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply the schema, including the reservation exclusion constraint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				dsn = os.Getenv("POSTGRES_DSN")
			}
			if dsn == "" {
				return fmt.Errorf("POSTGRES_DSN is required (flag --dsn or environment)")
			}

			db, err := pgstore.Open(dsn)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := pgstore.Migrate(db); err != nil {
				return err
			}
			fmt.Println("schema up to date")
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string (defaults to POSTGRES_DSN)")
	return cmd
}
