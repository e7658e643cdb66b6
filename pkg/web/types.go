package web

// StartRunRequest is the payload for starting a full qualification run.
type StartRunRequest struct {
	IncludeSOA       bool   `json:"include_soa"`
	IncludeWhiteList bool   `json:"include_white_list"`
	TriggeredBy      string `json:"triggered_by,omitempty" validate:"omitempty,min=1,max=128"`
}

// StartStepRequest is the payload for a targeted single-step run.
type StartStepRequest struct {
	TriggeredBy string `json:"triggered_by,omitempty" validate:"omitempty,min=1,max=128"`
}
