package handler

import (
	"time"

	"restgate/internal/decision"
)

// EvaluateResponse returns the opaque decision handle, never the flag.
type EvaluateResponse struct {
	DecisionHandle string    `json:"decision_handle"`
	Public         bool      `json:"public"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
}

func FromResult(result *decision.EvaluateResult) EvaluateResponse {
	return EvaluateResponse{
		DecisionHandle: result.Handle.String(),
		Public:         result.Public,
		EvaluatedAt:    result.EvaluatedAt,
	}
}

// LatestResponse reports the stored handle for a subject, or exists=false
// with an empty handle when no decision was ever recorded.
type LatestResponse struct {
	Exists         bool   `json:"exists"`
	DecisionHandle string `json:"decision_handle,omitempty"`
}
