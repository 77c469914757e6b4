package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/replypilot/replypilot/internal/biz/domain"
	"github.com/replypilot/replypilot/internal/biz/repo"
	"github.com/replypilot/replypilot/internal/biz/usecase"
	"github.com/replypilot/replypilot/platform"
)

// maxBodyBytes bounds the webhook body read; the platform sends small batches
const maxBodyBytes = 1 << 20

// Server is the inbound webhook endpoint. It acknowledges deliveries fast:
// the only blocking work on this path is the ledger reserve write.
type Server struct {
	ingestUC *usecase.IngestUsecase
	ledger   repo.LedgerRepo
	secret   string

	server *http.Server
	port   int
}

// EventResult reports the pipeline outcome for one event in a delivery
type EventResult struct {
	ReplyID string `json:"reply_id"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// NewServer creates a new webhook server
func NewServer(ingestUC *usecase.IngestUsecase, ledger repo.LedgerRepo, secret string, port int) *Server {
	return &Server{
		ingestUC: ingestUC,
		ledger:   ledger,
		secret:   secret,
		port:     port,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/stats", s.handleStats)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	fmt.Printf("[Server] Starting webhook server on port %d\n", s.port)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Shutdown(context.Background())
	}
	return nil
}

// handleWebhook runs the per-delivery pipeline:
// Received -> Verified -> Deduped -> Classified -> (Enqueued | Ignored | Rejected).
// Auth failure returns 401, malformed payloads 400; every other outcome is a
// fast 200 so the platform stops redelivering. Redelivery after a 5xx is
// safe because it is deduped.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if !platform.VerifySignature(s.secret, body, r.Header.Get(platform.SignatureHeader)) {
		fmt.Printf("[Server] Rejected delivery: %v\n", domain.ErrBadSignature)
		http.Error(w, domain.ErrBadSignature.Error(), http.StatusUnauthorized)
		return
	}

	envelope, err := platform.ParseEnvelope(body)
	if err != nil {
		fmt.Printf("[Server] Rejected delivery: %v: %v\n", domain.ErrMalformedPayload, err)
		http.Error(w, domain.ErrMalformedPayload.Error(), http.StatusBadRequest)
		return
	}

	results := make([]EventResult, 0, len(envelope.Events))
	for _, inbound := range envelope.Events {
		event := toDomainEvent(inbound)
		result, err := s.ingestUC.HandleEvent(r.Context(), event)
		if err != nil {
			// Nothing was recorded for this reply; a redelivery retries it
			fmt.Printf("[Server] Pipeline error for %s: %v\n", event.ReplyID, err)
			http.Error(w, "pipeline error", http.StatusInternalServerError)
			return
		}
		results = append(results, EventResult{
			ReplyID: event.ReplyID,
			Outcome: string(result.Outcome),
			Reason:  result.Reason,
		})
		fmt.Printf("[Server] Event %s: %s (%s)\n", event.ReplyID, result.Outcome, result.Reason)
	}

	s.writeJSON(w, map[string]interface{}{"results": results})
}

// handleStats returns ledger counters for operational visibility
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := s.ledger.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, stats)
}

// toDomainEvent converts a platform inbound event, discarding the delivery
// envelope ID; reply_id is the deduplication key
func toDomainEvent(in platform.InboundEvent) *domain.ReplyEvent {
	return &domain.ReplyEvent{
		EventID:      in.EventID,
		PostID:       in.PostID,
		ReplyID:      in.ReplyID,
		AuthorID:     in.AuthorID,
		AuthorHandle: in.AuthorHandle,
		Text:         in.Text,
		ReceivedAt:   time.Now(),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
