package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) totals(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	totals, err := h.ds.GetTotals(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(totals)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
