package send_event

import (
	"github.com/m04kA/SMC-LifecycleService/internal/domain"
)

// Request запрос на отправку события жизненного цикла
type Request struct {
	BookingID string
	Event     domain.Event
	Actor     domain.Actor
	Metadata  domain.Metadata
}

// EffectOutcome результат одного side-эффекта в ответе
type EffectOutcome struct {
	Effect  string `json:"effect"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// Response результат выполненного перехода
type Response struct {
	BookingID     string          `json:"bookingId"`
	PreviousState string          `json:"previousState"`
	NewState      string          `json:"newState"`
	SideEffects   []EffectOutcome `json:"sideEffectsApplied"`
}

func toEffectOutcomes(results []domain.EffectResult) []EffectOutcome {
	out := make([]EffectOutcome, 0, len(results))
	for _, r := range results {
		outcome := EffectOutcome{
			Effect:  string(r.Effect),
			Applied: r.Applied,
		}
		if r.Err != nil {
			outcome.Error = r.Err.Error()
		}
		out = append(out, outcome)
	}
	return out
}
