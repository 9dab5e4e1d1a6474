package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Veraticus/spicecat/internal/classify"
	"github.com/Veraticus/spicecat/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req model.ClassificationRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.engine.Classify(r.Context(), req)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	var reqs []model.ClassificationRequest
	if !s.decode(w, r, &reqs) {
		return
	}

	items, err := s.engine.ClassifyBulk(r.Context(), reqs)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

// handleBulkStream writes one JSON line per item as items complete. The
// status line is deferred until the first item so batch-level faults still
// get a proper status code.
func (s *Server) handleBulkStream(w http.ResponseWriter, r *http.Request) {
	var reqs []model.ClassificationRequest
	if !s.decode(w, r, &reqs) {
		return
	}

	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)
	started := false

	err := s.engine.StreamBulk(r.Context(), reqs, func(item model.BulkItem) error {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if err := enc.Encode(item); err != nil {
			return err
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
		return nil
	})

	switch {
	case err == nil:
	case !started:
		s.writeFault(w, err)
	default:
		s.logger.Warn("Bulk stream ended early", "error", err)
	}
}

func (s *Server) handleListMerchants(w http.ResponseWriter, r *http.Request) {
	merchants, err := s.store.ListMerchants(r.Context())
	if err != nil {
		s.writeInternal(w, "failed to list merchants", err)
		return
	}
	s.writeJSON(w, http.StatusOK, merchants)
}

func (s *Server) handleGetMerchant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	merchant, err := s.store.GetMerchant(r.Context(), id)
	if err != nil {
		s.writeInternal(w, "failed to get merchant", err)
		return
	}
	if merchant == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("merchant not found: %s", id)})
		return
	}
	s.writeJSON(w, http.StatusOK, merchant)
}

func (s *Server) handleSaveMerchant(w http.ResponseWriter, r *http.Request) {
	var merchant model.Merchant
	if !s.decode(w, r, &merchant) {
		return
	}
	if merchant.ID == "" || merchant.DisplayName == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request: merchant_id and display_name are required"})
		return
	}
	if err := s.store.SaveMerchant(r.Context(), &merchant); err != nil {
		s.writeInternal(w, "failed to save merchant", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, merchant)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	txn, err := s.store.GetTransaction(r.Context(), id)
	if err != nil {
		s.writeInternal(w, "failed to get transaction", err)
		return
	}
	if txn == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("transaction not found: %s", id)})
		return
	}
	s.writeJSON(w, http.StatusOK, model.RequestFromTransaction(*txn))
}

// handleSaveTransactions stores request-shaped transactions for later
// backfill.
func (s *Server) handleSaveTransactions(w http.ResponseWriter, r *http.Request) {
	var reqs []model.ClassificationRequest
	if !s.decode(w, r, &reqs) {
		return
	}
	if len(reqs) == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request: no transactions"})
		return
	}

	txns := make([]model.Transaction, 0, len(reqs))
	for _, req := range reqs {
		if err := classify.ValidateRequest(req); err != nil {
			s.writeFault(w, err)
			return
		}
		txn := model.TransactionFromRequest(req)
		txn.NormalizedDescription = classify.Normalize(txn.RawDescription)
		txns = append(txns, txn)
	}

	if err := s.store.SaveTransactions(r.Context(), txns); err != nil {
		s.writeInternal(w, "failed to save transactions", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]int{"saved": len(txns)})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return false
		}
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request: malformed JSON"})
		return false
	}
	return true
}

// writeFault maps engine errors to status codes. Only validation faults
// carry detail; everything else gets the engine's generic message.
func (s *Server) writeFault(w http.ResponseWriter, err error) {
	var fault *classify.FaultError
	switch {
	case classify.IsValidation(err):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &fault):
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fault.Error()})
	default:
		s.writeInternal(w, "request failed", err)
	}
}

func (s *Server) writeInternal(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}
