package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/videosnatcherz/snatcher/internal/config"
	"github.com/videosnatcherz/snatcher/internal/mailer"
	"github.com/videosnatcherz/snatcher/internal/media"
	"github.com/videosnatcherz/snatcher/internal/progress"
	"github.com/videosnatcherz/snatcher/internal/server"
)

const version = "0.1.0"

func main() {
	host := flag.String("host", "", "listen address (default: 0.0.0.0)")
	port := flag.Int("port", 0, "HTTP listen port (default: 8000)")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("snatcher-server %s\n", version)
		return
	}

	// Flags override environment, which overrides the config file.
	cfg := config.LoadOrDefault()
	if *host != "" {
		cfg.Host = *host
	}
	if *port > 0 {
		cfg.Port = *port
	}

	fetcher := media.NewFetcher(media.NewYtdlpEngine(), cfg.MaxConcurrent)
	tracker := progress.NewTracker()
	m := mailer.New(mailer.Config{
		Server:    cfg.SMTP.Server,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		Recipient: cfg.SMTP.Recipient,
	}, nil)

	srv := server.New(cfg, fetcher, tracker, m)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Stop(ctx)
	}()

	log.Printf("Environment: %s", cfg.Env)
	if !m.Configured() {
		log.Printf("SMTP credentials not set; contact form disabled")
	}

	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
