package models

import "time"

// Response entity identifiers used by the dispatch routing table.
const (
	EntityPoliciaTransito     = "policia-transito"
	EntityBomberos            = "bomberos"
	EntityBomberosVoluntarios = "bomberos-voluntarios"
	EntityPoliciaNacional     = "policia-nacional"
	EntityCruzRoja            = "cruz-roja"
	EntityPoliciaMunicipal    = "policia-municipal"
)

// DispatchResponse is the body a response entity returns on a dispatch call.
type DispatchResponse struct {
	Entity    string    `json:"entity"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// DispatchOutcome records one dispatch attempt to one entity. Outcomes
// are ephemeral: aggregated into a summary, never persisted.
type DispatchOutcome struct {
	Entity   string            `json:"entity"`
	Success  bool              `json:"success"`
	Response *DispatchResponse `json:"response,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// DispatchSummary aggregates the outcomes of one alert batch fan-out.
type DispatchSummary struct {
	AlertID   string            `json:"alert_id"`
	Targets   []string          `json:"targets"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Outcomes  []DispatchOutcome `json:"outcomes"`
}
