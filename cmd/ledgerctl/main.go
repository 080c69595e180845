package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/config"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/finance"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/logger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage/postgres"
)

// app is what every command runs against. Commands take their logger from ctx.
type app struct {
	ledger *ledger.Ledger
	book   *finance.Book
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"accounts", "List accounts with their balances", runAccounts},
	{"add-account", "Open an account", runAddAccount},
	{"add-tx", "Post a one-off transaction", runAddTransaction},
	{"add-recurring", "Create a recurring transaction and backfill it", runAddRecurring},
	{"edit-tx", "Change a transaction's description, type or amount", runEditTransaction},
	{"delete-tx", "Delete a transaction", runDeleteTransaction},
	{"delete-recurring", "Delete a recurring transaction (past transactions are kept)", runDeleteRecurring},
	{"check", "Materialize every due recurring occurrence", runCheck},
	{"verify", "Compare stored balances with their transactions", runVerify},
	{"preview", "List the dates a recurring transaction would materialize", runPreview},
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	name := os.Args[1]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage()
		return
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	log := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	db, err := config.OpenDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	store := postgres.NewPostgresLedgerStore(db)
	defer store.Close()

	l := ledger.NewLedger(store, nil, log)
	book, err := finance.LoadBook(ctx, l)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}

	if err := cmd.run(ctx, &app{ledger: l, book: book}, os.Args[2:]); err != nil {
		log.Fatal().Err(err).Str("command", name).Msg("Command failed")
	}
}

func printUsage() {
	fmt.Println("Personal finance ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  ledgerctl <command> [options]")
	fmt.Println("\nCommands:")
	for _, c := range commands {
		fmt.Printf("  %-17s %s\n", c.name, c.usage)
	}
	fmt.Println("\nDATABASE_URL must point at the ledger database.")
	fmt.Println("Run 'ledgerctl <command> -h' for more information on a command.")
}
