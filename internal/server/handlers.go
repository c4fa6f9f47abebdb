package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/capcea/bet-backend/internal/application/scanner"
	"github.com/capcea/bet-backend/internal/domain"
)

const (
	upcomingLimit   = 500
	logsDefault     = 500
	logsMax         = 5000
	runsDefault     = 20
	runsMax         = 200
	maxWindowHours  = 168
	diagTimeout     = 10 * time.Second
	readTimeout     = 5 * time.Second
	maxRequestBytes = 1 << 16
)

// errBadRequest marca errores de validación de entrada (400).
var errBadRequest = errors.New("bad request")

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

type diagResponse struct {
	OK      bool        `json:"ok"`
	HasKey  bool        `json:"hasKey"`
	Storage probeStatus `json:"storage"`
	OddsAPI any         `json:"odds_api,omitempty"`
}

type probeStatus struct {
	OK bool `json:"ok"`
}

func (s *Server) handleDiag(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), diagTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"ok": false, "where": "storage", "error": err.Error(),
		})
		return
	}

	resp := diagResponse{OK: true, Storage: probeStatus{OK: true}}
	if s.odds != nil {
		resp.HasKey = s.odds.HasKey()
		probe, err := s.odds.Ping(ctx)
		if err != nil {
			respondJSON(w, http.StatusInternalServerError, map[string]any{
				"ok": false, "where": "odds_api", "hasKey": resp.HasKey, "error": err.Error(),
			})
			return
		}
		resp.OK = probe.OK
		resp.OddsAPI = probe
	}
	respondJSON(w, http.StatusOK, resp)
}

type scanRequest struct {
	Hours *float64 `json:"hours"`
	EVMin *float64 `json:"evMin"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	p, err := scanParams(s.scan.Defaults(), req.Hours, req.EVMin)
	if err != nil {
		respondError(w, err)
		return
	}

	res, err := s.scan.RunOnce(r.Context(), p)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"run_id":     res.RunID,
		"leagues":    res.Leagues,
		"events":     res.Events,
		"candidates": res.Candidates,
		"inserted":   res.Inserted,
		"failed":     res.Failed,
		"picks":      res.Picks,
	})
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	res, err := s.settle.RunOnce(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"run_id":     res.RunID,
		"events":     res.Events,
		"resolved":   res.Resolved,
		"unresolved": res.Unresolved,
		"failed":     res.Failed,
	})
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	picks, err := s.store.ListUpcoming(ctx, upcomingLimit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, picks)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	limit := clamp(parseIntParam(r, "limit", logsDefault), 1, logsMax)
	picks, err := s.store.ListResolved(ctx, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, picks)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	stats, err := s.store.Stats(ctx)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	limit := clamp(parseIntParam(r, "limit", runsDefault), 1, runsMax)
	runs, err := s.store.RecentRuns(ctx, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, runs)
}

// scanParams aplica los overrides de una petición sobre los parámetros por defecto.
func scanParams(p scanner.Params, hours, evMin *float64) (scanner.Params, error) {
	if hours != nil {
		if *hours <= 0 || *hours > maxWindowHours {
			return p, fmt.Errorf("%w: hours must be in (0, %d]", errBadRequest, maxWindowHours)
		}
		p.Window = time.Duration(*hours * float64(time.Hour))
	}
	if evMin != nil {
		if *evMin < 0 || *evMin >= 1 {
			return p, fmt.Errorf("%w: evMin must be in [0, 1)", errBadRequest)
		}
		p.EVMin = *evMin
	}
	return p, nil
}

// decodeBody acepta un body vacío.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("error encoding response", "err", err)
	}
}

// respondError traduce el error a status: 400 entrada inválida, 409 run en curso, 500 el resto.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrLockHeld):
		status = http.StatusConflict
	default:
		slog.Error("request failed", "err", err)
	}
	respondJSON(w, status, map[string]any{"ok": false, "error": err.Error()})
}
