package main

import (
	"fmt"
	"os"

	"github.com/pratik-mahalle/creatorhub/internal/config"
	"github.com/pratik-mahalle/creatorhub/internal/repository/postgres"
	"github.com/pratik-mahalle/creatorhub/migrations"
)

// Usage: migrate [up|status]
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Connect to database
	db, err := postgres.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database\n", cfg.Database.Driver)

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		applied, err := postgres.RunMigrations(db, migrations.GetFS())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Migration failed after %d applied: %v\n", applied, err)
			os.Exit(1)
		}
		if applied == 0 {
			fmt.Println("Database is up to date")
			return
		}
		fmt.Printf("Applied %d migration(s)\n", applied)
	case "status":
		versions, err := postgres.MigrationStatus(db)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read migration status: %v\n", err)
			os.Exit(1)
		}
		if len(versions) == 0 {
			fmt.Println("No migrations applied")
			return
		}
		for _, v := range versions {
			fmt.Printf("✓ %s\n", v)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q (want up or status)\n", cmd)
		os.Exit(2)
	}
}
