package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjannette/trahn-journal/internal/events"
	"github.com/kjannette/trahn-journal/internal/models"
	"github.com/kjannette/trahn-journal/internal/store"
)

// strategyRequest serves both create and partial update; nil fields are left
// unchanged on update.
type strategyRequest struct {
	Name            *string `json:"name"`
	Type            *string `json:"type"`
	Comment         *string `json:"comment"`
	Description     *string `json:"description"`
	MarketType      *string `json:"marketType"`
	MarketCondition *string `json:"marketCondition"`
	RiskLevel       *string `json:"riskLevel"`
	TimeFrame       *string `json:"timeFrame"`
}

func (req *strategyRequest) apply(st *models.Strategy) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&st.Name, req.Name)
	set(&st.Type, req.Type)
	set(&st.Comment, req.Comment)
	set(&st.Description, req.Description)
	set(&st.MarketType, req.MarketType)
	set(&st.MarketCondition, req.MarketCondition)
	set(&st.RiskLevel, req.RiskLevel)
	set(&st.TimeFrame, req.TimeFrame)
}

func validateStrategy(st *models.Strategy) error {
	if st.Name == "" {
		return invalid("name is required")
	}
	if len(st.Name) > 191 {
		return invalid("name must be at most 191 characters")
	}
	enums := []struct {
		field   string
		value   string
		allowed []string
	}{
		{"type", st.Type, models.StrategyTypes},
		{"marketType", st.MarketType, models.MarketTypes},
		{"marketCondition", st.MarketCondition, models.MarketConditions},
		{"riskLevel", st.RiskLevel, models.RiskLevels},
	}
	for _, e := range enums {
		if !models.OneOf(e.value, e.allowed) {
			return invalid("%s must be one of %s", e.field, strings.Join(e.allowed, ", "))
		}
	}
	if st.TimeFrame != "" && !models.OneOf(st.TimeFrame, models.TimeFrames) {
		return invalid("timeFrame must be one of %s", strings.Join(models.TimeFrames, ", "))
	}
	return nil
}

func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	claims := userFrom(r.Context())

	var req strategyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st := &models.Strategy{UserID: claims.ID}
	req.apply(st)
	if err := validateStrategy(st); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.store.Strategies.Create(r.Context(), st)
	if errors.Is(err, store.ErrConflict) {
		writeError(w, http.StatusConflict, "a strategy with this name and type already exists")
		return
	}
	if err != nil {
		s.writeStoreError(w, r, err, "strategy")
		return
	}

	s.publish(r.Context(), events.New(events.StrategyCreated, claims.ID, created.ID, created))
	writeData(w, http.StatusCreated, "Strategy created successfully.", created)
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	claims := userFrom(r.Context())
	list, err := s.store.Strategies.ListByUser(r.Context(), claims.ID)
	if err != nil {
		s.writeStoreError(w, r, err, "strategy")
		return
	}
	writeData(w, http.StatusOK, "Strategies retrieved successfully.", list)
}

func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid strategy id")
		return
	}
	st, err := s.store.Strategies.Get(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		s.writeStoreError(w, r, err, "strategy")
		return
	}
	writeData(w, http.StatusOK, "Strategy retrieved successfully.", st)
}

func (s *Server) handleUpdateStrategy(w http.ResponseWriter, r *http.Request) {
	claims := userFrom(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid strategy id")
		return
	}

	var req strategyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := s.store.Strategies.Get(r.Context(), claims.ID, id)
	if err != nil {
		s.writeStoreError(w, r, err, "strategy")
		return
	}
	req.apply(st)
	if err := validateStrategy(st); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.store.Strategies.Update(r.Context(), st)
	if errors.Is(err, store.ErrConflict) {
		writeError(w, http.StatusConflict, "a strategy with this name and type already exists")
		return
	}
	if err != nil {
		s.writeStoreError(w, r, err, "strategy")
		return
	}
	// strategy names appear in the per-strategy breakdown
	s.cache.Invalidate(r.Context(), claims.ID)

	writeData(w, http.StatusOK, "Strategy updated successfully.", updated)
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	claims := userFrom(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid strategy id")
		return
	}

	err := s.store.Strategies.Delete(r.Context(), claims.ID, id)
	if errors.Is(err, store.ErrConflict) {
		writeError(w, http.StatusConflict, "strategy still has trades; delete or reassign them first")
		return
	}
	if err != nil {
		s.writeStoreError(w, r, err, "strategy")
		return
	}

	s.publish(r.Context(), events.New(events.StrategyDeleted, claims.ID, id, nil))
	writeData(w, http.StatusOK, "Strategy deleted successfully.", nil)
}

// publish never fails the request; broker problems are only logged.
func (s *Server) publish(ctx context.Context, e events.Event) {
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.events.Publish(pctx, e); err != nil {
		s.log.Warn("publish event failed",
			zap.String("requestId", requestIDFrom(ctx)),
			zap.String("type", e.Type),
			zap.Int64("entityId", e.EntityID),
			zap.Error(err))
	}
}
