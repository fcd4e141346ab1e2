package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/claude/vitalfusion/internal/canonical"
	"github.com/claude/vitalfusion/internal/fusion"
	"github.com/claude/vitalfusion/internal/menstrual/cyclepredict"
	"github.com/claude/vitalfusion/internal/menstrual/symptoms"
	"github.com/claude/vitalfusion/internal/readiness"
)

type fuseDailyRequest struct {
	Owner  string                  `json:"owner"`
	Date   string                  `json:"date"`
	Inputs []canonical.DailyRecord `json:"inputs"`
}

func (s *Server) handleFuseDaily(w http.ResponseWriter, r *http.Request) {
	var req fuseDailyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date: " + err.Error()})
		return
	}

	engine := fusion.NewEngine(s.cfg)
	fused, result, err := engine.RunDaily(req.Owner, date, req.Inputs)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := s.db.InsertFusionResult(r.Context(), result); err != nil {
		s.log.Error("persisting fusion result", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"fused": fused, "provenance": result})
}

type fuseSleepRequest struct {
	Owner  string                  `json:"owner"`
	Date   string                  `json:"date"`
	Inputs []canonical.SleepRecord `json:"inputs"`
}

func (s *Server) handleFuseSleep(w http.ResponseWriter, r *http.Request) {
	var req fuseSleepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date: " + err.Error()})
		return
	}

	engine := fusion.NewEngine(s.cfg)
	fused, results, err := engine.RunSleep(req.Owner, date, req.Inputs)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	for _, result := range results {
		if err := s.db.InsertFusionResult(r.Context(), result); err != nil {
			s.log.Error("persisting fusion result", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"fused": fused, "provenance": results})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner parameter required"})
		return
	}

	var in readiness.Inputs
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && r.ContentLength > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	cfg := s.cfg.Get()
	score := readiness.Compute(cfg.Readiness, owner, time.Now(), in)

	if err := s.db.UpsertReadinessScore(r.Context(), score); err != nil {
		s.log.Error("persisting readiness score", "error", err)
	}

	writeJSON(w, http.StatusOK, score)
}

func (s *Server) handleReadinessHistory(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner parameter required"})
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	scores, err := s.db.QueryReadinessScores(r.Context(), owner, start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (s *Server) handleCyclePredict(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner parameter required"})
		return
	}

	cycles, err := s.db.QueryCycleHistory(r.Context(), owner)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	cfg := s.cfg.Get()
	var currentStart *time.Time
	if v := r.URL.Query().Get("current_cycle_start"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid current_cycle_start: " + err.Error()})
			return
		}
		currentStart = &t
	}

	prediction := cyclepredict.Predict(cfg.Menstrual, cycles, currentStart, nil, time.Now())
	writeJSON(w, http.StatusOK, prediction)
}

func (s *Server) handleRecordCycle(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner parameter required"})
		return
	}

	var cycle canonical.CycleRecord
	if err := json.NewDecoder(r.Body).Decode(&cycle); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if cycle.ID == "" {
		cycle.ID = uuid.NewString()
	}

	if err := s.db.InsertCycleRecord(r.Context(), owner, cycle); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

func (s *Server) handleRecordSymptomLog(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner parameter required"})
		return
	}

	var log canonical.SymptomLog
	if err := json.NewDecoder(r.Body).Decode(&log); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	if err := s.db.UpsertSymptomLog(r.Context(), owner, log); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (s *Server) handleSymptomInsights(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner parameter required"})
		return
	}

	logs, err := s.db.QuerySymptomLogs(r.Context(), owner)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	insights := symptoms.GenerateInsights(logs)
	writeJSON(w, http.StatusOK, insights)
}
