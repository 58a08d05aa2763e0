package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agni-pos/api/internal/billing"
	"github.com/agni-pos/api/internal/config"
	"github.com/agni-pos/api/internal/database"
	"github.com/agni-pos/api/internal/router"
	"github.com/agni-pos/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	// Rebuild the active floor from the durable table store before serving.
	ledger := billing.NewLedger(database.NewTablesStore(pool))
	if err := ledger.Load(ctx); err != nil {
		log.Fatalf("load active tables: %v", err)
	}

	engine := billing.NewEngine(ledger, database.NewBillsStore(pool))

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(router.Deps{
		Config: cfg,
		Pool:   pool,
		Ledger: ledger,
		Engine: engine,
		Hub:    hub,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: shutdown: %v", err)
	}
}
