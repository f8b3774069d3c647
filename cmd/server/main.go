package main

import (
	"fmt"
	"log"

	"gems/internal/config"
	"gems/internal/database"
	"gems/internal/handlers"
	"gems/internal/risk"
	"gems/internal/server"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	database.Init(cfg.DBDSN)

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	engine := risk.New(database.DB, logger, risk.Options{
		ConvergeLinks:    cfg.LinkConverge,
		RestoreOnResolve: cfg.RestoreOnResolve,
	})
	handlers.SetEngine(engine)

	r := server.NewRouter(cfg)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("starting server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
