package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// defaultHistoryLimit caps get_history when no limit is given.
const defaultHistoryLimit = 20

// --- Tool definitions ---

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercises the counter can track, with the joint triple each one measures and its up/down angle thresholds in degrees."),
)

var toolGetTotals = mcp.NewTool("get_totals",
	mcp.WithDescription("Lifetime repetition totals per exercise, summed over every saved session."),
)

var toolGetExerciseStats = mcp.NewTool("get_exercise_stats",
	mcp.WithDescription("Session statistics for one exercise: session count, total reps, mean and standard deviation of reps per session, and the best session."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise ID (e.g. pushup, squat, curl)")),
)

var toolGetHistory = mcp.NewTool("get_history",
	mcp.WithDescription("Saved sessions for one exercise, oldest first. Returns the most recent sessions up to the limit."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise ID")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return. Defaults to 20; 0 returns all.")),
)

var toolGetCurrentSession = mcp.NewTool("get_current_session",
	mcp.WithDescription("The live training session, if any: exercise, reps so far, target, rep state and whether a person is in view."),
)

// --- Tool handlers ---

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.ds.ListExercises(ctx)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(list)
}

func (h *handlers) getTotals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	totals, err := h.ds.GetTotals(ctx)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(totals)
}

func (h *handlers) getExerciseStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	stats, err := h.ds.GetExerciseStats(ctx, exercise)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func (h *handlers) getHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	limit := req.GetInt("limit", defaultHistoryLimit)
	if limit < 0 {
		return mcp.NewToolResultError("limit must not be negative"), nil
	}

	records, err := h.ds.GetHistory(ctx, exercise, limit)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(records)
}

func (h *handlers) getCurrentSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.ds.GetCurrentSession(ctx)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if status == nil {
		return mcp.NewToolResultText("No training session is active."), nil
	}
	return jsonResult(status)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
