package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hixam001/chat-application-go/internal/server"
	"github.com/hixam001/chat-application-go/internal/store"
)

func main() {
	fmt.Println("Starting chat relay server...")

	_ = godotenv.Load()
	cfg, err := server.NewConfigFromEnv()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// A failed store initialization is fatal: nothing may be accepted
	// before the schema exists.
	creds, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Server database initialization error: %v", err)
	}
	defer closeStore()

	registry := server.NewRegistry()
	srv := server.NewServer(*cfg, creds, registry)
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to bind %s: %v", cfg.ListenAddr, err)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
		if err := srv.Shutdown(cfg.ShutdownTimeout); err != nil {
			log.Printf("Shutdown incomplete: %v", err)
		}
	}
}

// openStore picks the credential store backend: Postgres when
// DATABASE_URL is set, otherwise an in-memory store for development.
// Both use the plaintext comparator to match the original system;
// swap in store.BcryptComparator{} to store salted hashes instead.
func openStore(cfg *server.Config) (store.CredentialStore, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set; using in-memory credential store (credentials vanish on restart)")
		return store.NewMemory(nil), func() {}, nil
	}

	pg, err := store.OpenPostgres(cfg.DatabaseURL, nil)
	if err != nil {
		return nil, nil, err
	}
	log.Println("Database initialized/checked by server.")
	return pg, func() { _ = pg.Close() }, nil
}
