package api

import (
	"net/http"
	"strings"

	"github.com/coinwatch/crypto-tracker/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.assets.List(r.Context())
	if err != nil {
		s.logger.Error("Failed to list assets", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch assets")
		return
	}
	if assets == nil {
		assets = []models.Asset{}
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) handleAssetPrice(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	quote, err := s.txs.LatestPrice(r.Context(), symbol)
	if err != nil {
		s.logger.Error("Failed to fetch latest price", zap.String("symbol", symbol), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch price")
		return
	}
	if quote == nil {
		writeError(w, http.StatusNotFound, "no price data for "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleAssetTransactions(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	ctx := r.Context()
	asset, err := s.assets.GetBySymbol(ctx, symbol)
	if err != nil {
		s.logger.Error("Failed to fetch asset", zap.String("symbol", symbol), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch asset")
		return
	}
	if asset == nil {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}

	f, err := parseRangeFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.txs.GetByAsset(ctx, asset.ID, f)
	if err != nil {
		s.logger.Error("Failed to fetch asset transactions", zap.String("symbol", symbol), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch transactions")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}
