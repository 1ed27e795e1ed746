package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/seed"
)

// SeedCommand loads the sample library into the configured database.
type SeedCommand struct {
	DatabasePath string
	BcryptCost   int

	cfg *config.Config
}

func NewSeedCommand(cfg *config.Config) *SeedCommand {
	return &SeedCommand{cfg: cfg}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the SQLite database (ignored for postgres)")
	fs.IntVar(&cmd.BcryptCost, "bcrypt-cost", cmd.cfg.Auth.BcryptCost, "bcrypt cost for the sample users' password")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Load sample users, authors and books. Existing rows are left untouched.\n\n")
		fmt.Fprintf(os.Stderr, "The database driver is taken from DATABASE_DRIVER / DATABASE_DSN.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *SeedCommand) Run() error {
	dbCfg := cmd.cfg.Database
	dbCfg.Path = cmd.DatabasePath

	db, err := database.NewSilentDatabase(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	fmt.Println("Seeding database...")

	result, err := seed.NewSeeder(db.DB, cmd.BcryptCost).Run(context.Background())
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	fmt.Printf("Users created:   %d\n", result.UsersCreated)
	fmt.Printf("Authors created: %d\n", result.AuthorsCreated)
	fmt.Printf("Books created:   %d\n", result.BooksCreated)
	fmt.Printf("Loans opened:    %d\n", result.BorrowsCreated)
	fmt.Println()
	fmt.Println("Test user credentials:")
	fmt.Println("  Email:    admin@library.com")
	fmt.Printf("  Password: %s\n", seed.DefaultPassword)

	return nil
}
