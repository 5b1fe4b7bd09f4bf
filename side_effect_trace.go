package megawidget

import (
	"encoding/json"
	"time"
)

// SideEffectTrace records one side-effects pass: what triggered it, whether
// it was significant, the updates applied and the errors reported to the host.
type SideEffectTrace struct {
	Trigger     string     `json:"trigger"`
	Significant bool       `json:"significant"`
	Applied     Properties `json:"applied,omitempty"`
	Errors      []string   `json:"errors,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// ToJSON serialises the trace for logging or transport helpers.
func (t SideEffectTrace) ToJSON() ([]byte, error) {
	type alias SideEffectTrace
	return json.Marshal(alias(t))
}

// SideEffectTraceFromJSON deserialises a payload produced by ToJSON.
func SideEffectTraceFromJSON(payload []byte) (SideEffectTrace, error) {
	type alias SideEffectTrace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return SideEffectTrace{}, err
	}
	return SideEffectTrace(trace), nil
}

func (t SideEffectTrace) clone() SideEffectTrace {
	out := t
	out.Applied = t.Applied.Clone()
	out.Errors = append([]string(nil), t.Errors...)
	return out
}
