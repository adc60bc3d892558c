package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/collab-notes/internal/auth"
	"github.com/iliyamo/collab-notes/internal/config"
	"github.com/iliyamo/collab-notes/internal/database"
	"github.com/iliyamo/collab-notes/internal/handler"
	"github.com/iliyamo/collab-notes/internal/middleware"
	"github.com/iliyamo/collab-notes/internal/queue"
	"github.com/iliyamo/collab-notes/internal/realtime"
	"github.com/iliyamo/collab-notes/internal/repository"
	"github.com/iliyamo/collab-notes/internal/router"
	"github.com/iliyamo/collab-notes/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	notes := repository.NewNoteRepo(db)

	tokens := auth.NewTokenService(
		cfg.AccessSecret,
		cfg.RefreshSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
	)

	// One hub per process, torn down with it; handed by reference to both
	// the websocket endpoint and the note service.
	hub := realtime.NewHub()
	ws := realtime.NewHandler(hub)

	publisher := queue.NewPublisherFromEnv()
	go func() {
		if err := queue.StartNoteConsumer(publisher.URL); err != nil {
			log.Printf("note-consumer stopped: %v", err)
		}
	}()

	noteSvc := service.NewNoteService(notes, hub, publisher)

	gate := middleware.AuthGate(tokens, users)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), config.NewRedisClient())

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterHealth(e)
	router.RegisterAuth(e, handler.NewAuthHandler(users, tokens, cfg.BcryptCost), gate, limit)
	router.RegisterNotes(e, handler.NewNoteHandler(noteSvc), gate)
	router.RegisterRealtime(e, ws)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
