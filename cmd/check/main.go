// Command check verifies the database connection and asset registry
// credentials configured for reelsync.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/JaimeStill/reelsync/internal/config"
	"github.com/JaimeStill/reelsync/pkg/database"
	"github.com/JaimeStill/reelsync/pkg/registry"
)

type check struct {
	name string
	run  func(ctx context.Context) (string, error)
}

func main() {
	timeout := flag.Duration("timeout", 15*time.Second, "Overall time limit for all checks")
	verbose := flag.Bool("v", false, "Log requests made by the checks")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	var out io.Writer = io.Discard
	if *verbose {
		out = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(out, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		log.Fatal("database init failed: ", err)
	}
	defer db.Connection().Close()

	client, err := registry.NewClient(&cfg.Registry, logger)
	if err != nil {
		log.Fatal("registry init failed: ", err)
	}

	checks := []check{
		{
			name: "database",
			run: func(ctx context.Context) (string, error) {
				if err := db.Ping(ctx); err != nil {
					return "", err
				}
				return "connection established", nil
			},
		},
		{
			name: "registry",
			run: func(ctx context.Context) (string, error) {
				user, err := client.CurrentUser(ctx)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("authenticated as %s %s <%s>", user.FirstName, user.LastName, user.Email), nil
			},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	failed := 0
	for _, c := range checks {
		detail, err := c.run(ctx)
		if err != nil {
			failed++
			fmt.Printf("FAIL  %-10s %v\n", c.name, err)
			continue
		}
		fmt.Printf("OK    %-10s %s\n", c.name, detail)
	}

	if failed > 0 {
		fmt.Printf("%d of %d checks failed\n", failed, len(checks))
		cancel()
		os.Exit(1)
	}
	fmt.Println("all checks passed")
}
