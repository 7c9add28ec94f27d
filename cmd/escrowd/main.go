package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AgentEscrow/internal/config"
	"AgentEscrow/internal/crank"
	"AgentEscrow/internal/escrow"
	"AgentEscrow/internal/notifier"
	"AgentEscrow/internal/server"
	"AgentEscrow/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] agent-escrow starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Open vault store
	var st store.Store
	if cfg.Database.SQLitePath != "" {
		sqliteStore, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Fatalf("[FATAL] open sqlite store: %v", err)
		}
		st = sqliteStore
		defer sqliteStore.Close()
	} else {
		log.Println("[WARN] no sqlite path configured, vaults held in memory only")
		st = store.NewMemoryStore()
	}

	// Init notifier
	var tn *notifier.TelegramNotifier
	var n escrow.Notifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	} else {
		log.Println("[WARN] Telegram not configured, notifications disabled")
		n = notifier.NewNoopNotifier()
	}

	// Init engine
	eng := escrow.NewEngine(st, n)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init maintenance crank
	ck := crank.New(ctx, eng)
	if err := ck.RegisterAll(cfg.Crank.DeductCron, cfg.Crank.ExpireCron); err != nil {
		log.Fatalf("[FATAL] register crank tasks: %v", err)
	}
	ck.Start()
	defer ck.Stop()

	// Start Telegram command polling
	if tn != nil {
		go tn.StartPolling(ctx, ck.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run sweeps immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing sweeps now")
		go ck.DeductionSweep()
		go ck.ExpirySweep()
	}

	// Start HTTP server
	srv := server.New(cfg.Server.ListenAddr, eng)
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	log.Println("[INFO] agent-escrow is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] http shutdown: %v", err)
	}
	log.Println("[INFO] agent-escrow stopped")
}
