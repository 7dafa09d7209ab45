// adminctl provisions ADMIN accounts out-of-band.  There is no in-band
// bootstrap path: admins are created here with a normally hashed password
// and then log in through the same credential check as everyone else.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/workodr/marketplace-api/internal/auth"
	"github.com/workodr/marketplace-api/internal/config"
	"github.com/workodr/marketplace-api/internal/database"
	"github.com/workodr/marketplace-api/internal/model"
	"github.com/workodr/marketplace-api/internal/repository"
)

func main() {
	var (
		name     string
		email    string
		phone    string
		password string
	)

	root := &cobra.Command{
		Use:   "adminctl",
		Short: "Provision admin accounts for the marketplace API",
	}

	create := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an ADMIN user with a password credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || email == "" || password == "" {
				return fmt.Errorf("--name, --email and --password are required")
			}
			_ = godotenv.Load()
			cfg := config.Load()

			db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
			if err != nil {
				return fmt.Errorf("database connect: %w", err)
			}
			defer db.Close()

			hash, err := auth.HashPassword(password, cfg.BcryptCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			users := repository.NewUserRepo(db)
			id, err := users.CreateWithPassword(ctx, name, email, phone, model.RoleAdmin, hash)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Printf("created admin user id=%d email=%s\n", id, email)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name")
	create.Flags().StringVar(&email, "email", "", "email address")
	create.Flags().StringVar(&phone, "phone", "", "phone number (optional)")
	create.Flags().StringVar(&password, "password", "", "initial password")

	root.AddCommand(create)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
