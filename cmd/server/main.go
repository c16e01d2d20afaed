package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/mvickers/rps-duel/internal/config"
	"github.com/mvickers/rps-duel/internal/handlers"
	"github.com/mvickers/rps-duel/internal/lobby"
	"github.com/mvickers/rps-duel/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	hub := handlers.NewHub(logger)
	reg := lobby.NewRegistry(logger, hub.Send)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","lobbies":%d}`, reg.LobbyCount())
	})
	mux.Handle("/ws", handlers.WSHandler(logger, hub, reg))
	mux.Handle("/", http.FileServer(http.Dir(config.StaticDir())))

	server := &http.Server{
		Handler: middleware.LogMiddleware(logger)(mux),
		// No ReadTimeout: websocket connections are long-lived.
		ReadHeaderTimeout: 10 * time.Second,
	}

	l, err := net.Listen("tcp", fmt.Sprintf(":%s", config.Port()))
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}
