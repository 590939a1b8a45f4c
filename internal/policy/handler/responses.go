package handler

import "restgate/internal/policy"

// PolicyResponse is the wire form of the current policy.
type PolicyResponse struct {
	BPMThreshold    uint16 `json:"bpm_threshold"`
	StressThreshold uint16 `json:"stress_threshold"`
	Mode            string `json:"mode"`
	Configured      bool   `json:"configured"`
}

func FromPolicy(p policy.Policy) PolicyResponse {
	return PolicyResponse{
		BPMThreshold:    p.BPMThreshold,
		StressThreshold: p.StressThreshold,
		Mode:            p.Mode.String(),
		Configured:      p.IsConfigured(),
	}
}

// AdministratorResponse reports the current administrator identity.
type AdministratorResponse struct {
	Administrator string `json:"administrator"`
}
