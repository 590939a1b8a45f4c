package handler

// SetPolicyRequest is the wire form of a policy replacement.
type SetPolicyRequest struct {
	BPMThreshold    uint16 `json:"bpm_threshold"`
	StressThreshold uint16 `json:"stress_threshold"`
	Mode            string `json:"mode"`
}

// TransferRequest names the next administrator.
type TransferRequest struct {
	NewAdmin string `json:"new_admin"`
}
