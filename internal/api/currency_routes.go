package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/store"
)

type currencyPairRequest struct {
	Symbol        string `json:"symbol"`
	BaseCurrency  string `json:"baseCurrency"`
	QuoteCurrency string `json:"quoteCurrency"`
	Description   string `json:"description"`
}

// splitSymbol derives base and quote from "EUR/USD", "EUR-USD" or "EURUSD".
func splitSymbol(symbol string) (base, quote string) {
	if i := strings.IndexAny(symbol, "/-_"); i > 0 {
		return symbol[:i], symbol[i+1:]
	}
	if len(symbol) == 6 {
		return symbol[:3], symbol[3:]
	}
	return "", ""
}

func (s *Server) handleCreateCurrencyPair(w http.ResponseWriter, r *http.Request) {
	claims := userFrom(r.Context())

	var req currencyPairRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := &models.CurrencyPair{
		UserID:        claims.ID,
		Symbol:        strings.ToUpper(strings.TrimSpace(req.Symbol)),
		BaseCurrency:  strings.ToUpper(strings.TrimSpace(req.BaseCurrency)),
		QuoteCurrency: strings.ToUpper(strings.TrimSpace(req.QuoteCurrency)),
		Description:   strings.TrimSpace(req.Description),
	}
	if p.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if len(p.Symbol) > 32 {
		writeError(w, http.StatusBadRequest, "symbol must be at most 32 characters")
		return
	}
	if p.BaseCurrency == "" && p.QuoteCurrency == "" {
		p.BaseCurrency, p.QuoteCurrency = splitSymbol(p.Symbol)
	}

	created, err := s.store.CurrencyPairs.Create(r.Context(), p)
	if errors.Is(err, store.ErrConflict) {
		writeError(w, http.StatusConflict, "currency pair already exists")
		return
	}
	if err != nil {
		s.writeStoreError(w, r, err, "currency pair")
		return
	}
	writeData(w, http.StatusCreated, "Currency pair created successfully.", created)
}

func (s *Server) handleGetCurrencyPair(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid currency pair id")
		return
	}
	p, err := s.store.CurrencyPairs.Get(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		s.writeStoreError(w, r, err, "currency pair")
		return
	}
	writeData(w, http.StatusOK, "Currency pair retrieved successfully.", p)
}

// handleListCurrencyPairs keeps the userId path segment the client uses, but
// only the token's own user may be listed.
func (s *Server) handleListCurrencyPairs(w http.ResponseWriter, r *http.Request) {
	claims := userFrom(r.Context())
	userID, ok := pathID(r, "userId")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if userID != claims.ID {
		writeError(w, http.StatusForbidden, "cannot list another user's currency pairs")
		return
	}

	list, err := s.store.CurrencyPairs.ListByUser(r.Context(), claims.ID)
	if err != nil {
		s.writeStoreError(w, r, err, "currency pair")
		return
	}
	writeData(w, http.StatusOK, "Currency pairs retrieved successfully.", list)
}

func (s *Server) handleDeleteCurrencyPair(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid currency pair id")
		return
	}

	err := s.store.CurrencyPairs.Delete(r.Context(), userFrom(r.Context()).ID, id)
	if errors.Is(err, store.ErrConflict) {
		writeError(w, http.StatusConflict, "currency pair is used by trades; delete them first")
		return
	}
	if err != nil {
		s.writeStoreError(w, r, err, "currency pair")
		return
	}
	writeData(w, http.StatusOK, "Currency pair deleted successfully.", nil)
}
