package main

import (
	"context"
	"log"
	"net/http"

	"showcount/internal/store"
	"showcount/shared/go/logging"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logging.SetGlobalLogger(logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}))

	db, err := openDatabase(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	dataStore := store.New(db)

	handler, err := newHTTPHandler(cfg, dataStore)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("API available at http://localhost%v", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
