package api

import (
	"net/http"
	"strconv"

	"github.com/coinwatch/crypto-tracker/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleUserTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx := r.Context()
	user, err := s.users.GetByID(ctx, int32(id))
	if err != nil {
		s.logger.Error("Failed to fetch user", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	f, err := parseRangeFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.txs.GetByUser(ctx, user.ID, f)
	if err != nil {
		s.logger.Error("Failed to fetch user transactions", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch transactions")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}
