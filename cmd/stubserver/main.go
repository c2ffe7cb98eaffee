// Package main is a local stand-in for the chat delivery endpoint. It lets
// the client run in bypass-auth mode without the real backend.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/skybridge-ai/chat-client/pkg/logger"
)

type sendRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

type sendResponse struct {
	Response string `json:"response"`
}

func main() {
	port := flag.String("port", "8080", "port to listen on")
	delay := flag.Duration("delay", 500*time.Millisecond, "simulated backend latency")
	flag.Parse()

	log, err := logger.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		time.Sleep(*delay)

		log.Info("stub reply",
			zap.String("conversation_id", req.ConversationID),
			zap.Int("content_length", len(req.Message)))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sendResponse{
			Response: fmt.Sprintf("Stub reply to: %q", req.Message),
		})
	})

	log.Info("stub server listening", zap.String("port", *port))
	if err := http.ListenAndServe(":"+*port, r); err != nil {
		log.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}
