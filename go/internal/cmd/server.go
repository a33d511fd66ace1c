package main

import (
	"net/http"
	"time"

	"github.com/mcdev12/courier/go/internal/config"
)

func setupServer(cfg *config.Config, services *Services) *http.Server {
	return &http.Server{
		Addr:        cfg.Addr(),
		Handler:     services.Gateway.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
}
