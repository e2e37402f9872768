package main

import (
	"log"
	"net/http"

	"vibra/internal/config"
	"vibra/internal/db"
	"vibra/internal/server"
)

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		if database == nil {
			log.Fatal(err)
		}
		// degraded start: keep serving, requests fail until the store recovers
		log.Printf("store init: %v", err)
	}

	srv, err := server.New(database, "web/templates", cfg.SecretKey)
	if err != nil {
		log.Fatal(err)
	}

	handler := http.Handler(srv)
	if cfg.Debug {
		handler = server.LogRequests(handler)
	}

	log.Printf("listening on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatal(err)
	}
}
