package api

import (
	"net/http"

	"github.com/coinwatch/crypto-tracker/internal/models"
	"go.uber.org/zap"
)

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseRangeFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.txs.GetRange(r.Context(), f)
	if err != nil {
		s.logger.Error("Failed to fetch transactions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch transactions")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleTransactionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.txs.GetStats(r.Context())
	if err != nil {
		s.logger.Error("Failed to fetch transaction stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
