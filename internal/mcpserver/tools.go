package mcpserver

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/vitalfusion/internal/menstrual/cyclepredict"
	"github.com/claude/vitalfusion/internal/menstrual/symptoms"
	"github.com/claude/vitalfusion/internal/readiness"
)

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

// --- Tool definitions ---

var toolGetReadiness = mcp.NewTool("get_readiness",
	mcp.WithDescription("Compute today's readiness score (0-100, band thriving/watch/concern). No HRV, RHR, sleep, or recovery-time inputs are passed to the scorer, so every component is unavailable and the result is the no-data score (50, watch), or 0/concern when readiness is disabled."),
	mcp.WithString("owner", mcp.Required(), mcp.Description("Owner identifier to scope the query")),
)

var toolGetReadinessHistory = mcp.NewTool("get_readiness_history",
	mcp.WithDescription("Retrieve previously computed readiness scores over a date range."),
	mcp.WithString("owner", mcp.Required(), mcp.Description("Owner identifier to scope the query")),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to now.")),
)

var toolPredictCycle = mcp.NewTool("predict_cycle",
	mcp.WithDescription("Predict the next menstrual cycle's period start, ovulation date, and fertile window from historical cycle data."),
	mcp.WithString("owner", mcp.Required(), mcp.Description("Owner identifier to scope the query")),
	mcp.WithString("current_cycle_start", mcp.Description("First day of the current in-progress cycle (YYYY-MM-DD), if known")),
)

var toolGetSymptomInsights = mcp.NewTool("get_symptom_insights",
	mcp.WithDescription("Surface phase-based symptom patterns and symptom/metric correlations from logged symptom history."),
	mcp.WithString("owner", mcp.Required(), mcp.Description("Owner identifier to scope the query")),
)

// --- Handlers ---

func (h *handlers) getReadiness(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := req.RequireString("owner")
	if err != nil {
		return mcp.NewToolResultError("owner parameter is required"), nil
	}

	cfg := h.cfg.Get()
	score := readiness.Compute(cfg.Readiness, owner, time.Now(), readiness.Inputs{})

	result, err := mcp.NewToolResultJSON(score)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getReadinessHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := req.RequireString("owner")
	if err != nil {
		return mcp.NewToolResultError("owner parameter is required"), nil
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	scores, err := h.db.QueryReadinessScores(ctx, owner, start, end)
	if err != nil {
		h.log.Error("mcp get_readiness_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(scores)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) predictCycle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := req.RequireString("owner")
	if err != nil {
		return mcp.NewToolResultError("owner parameter is required"), nil
	}

	cycles, err := h.db.QueryCycleHistory(ctx, owner)
	if err != nil {
		h.log.Error("mcp predict_cycle", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	var currentStart *time.Time
	if v := req.GetString("current_cycle_start", ""); v != "" {
		t, err := parseFlexTime(v)
		if err != nil {
			return mcp.NewToolResultError("invalid current_cycle_start: " + err.Error()), nil
		}
		currentStart = &t
	}

	cfg := h.cfg.Get()
	prediction := cyclepredict.Predict(cfg.Menstrual, cycles, currentStart, nil, time.Now())

	result, err := mcp.NewToolResultJSON(prediction)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSymptomInsights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := req.RequireString("owner")
	if err != nil {
		return mcp.NewToolResultError("owner parameter is required"), nil
	}

	logs, err := h.db.QuerySymptomLogs(ctx, owner)
	if err != nil {
		h.log.Error("mcp get_symptom_insights", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	insights := symptoms.GenerateInsights(logs)

	result, err := mcp.NewToolResultJSON(insights)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
