package handler

import (
	"encoding/base64"

	"restgate/internal/decision"
	"restgate/internal/encval"
	dErrors "restgate/pkg/domain-errors"
)

// EvaluateRequest is the wire form of an evaluation submission. Handles are
// hex, the proof is base64; none of it is plaintext biometrics.
type EvaluateRequest struct {
	BPMHandle    string `json:"bpm_handle"`
	StressHandle string `json:"stress_handle"`
	Proof        string `json:"proof"`
	Visibility   string `json:"visibility,omitempty"`
}

// Parse validates the wire fields and builds the domain request. The subject
// is attached by the handler from the authenticated caller.
func (r EvaluateRequest) Parse() (decision.EvaluateRequest, error) {
	bpm, ok := encval.ParseExternal(r.BPMHandle)
	if !ok {
		return decision.EvaluateRequest{}, dErrors.New(dErrors.CodeBadRequest, "bpm_handle must be a 32-byte hex handle")
	}
	stress, ok := encval.ParseExternal(r.StressHandle)
	if !ok {
		return decision.EvaluateRequest{}, dErrors.New(dErrors.CodeBadRequest, "stress_handle must be a 32-byte hex handle")
	}
	proof, err := base64.StdEncoding.DecodeString(r.Proof)
	if err != nil {
		return decision.EvaluateRequest{}, dErrors.New(dErrors.CodeBadRequest, "proof must be base64")
	}
	visibility, err := decision.ParseVisibility(r.Visibility)
	if err != nil {
		return decision.EvaluateRequest{}, err
	}
	return decision.EvaluateRequest{
		BPM:        bpm,
		Stress:     stress,
		Proof:      proof,
		Visibility: visibility,
	}, nil
}
