package send_event

import (
	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	sendEvent "github.com/m04kA/SMC-LifecycleService/internal/usecase/send_event"
)

// SendEventRequest HTTP request model
type SendEventRequest struct {
	Event    string          `json:"event"`
	Metadata domain.Metadata `json:"metadata,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *SendEventRequest) ToUseCaseRequest(bookingID string, actor domain.Actor) (*sendEvent.Request, error) {
	event, err := domain.ParseEvent(r.Event)
	if err != nil {
		return nil, err
	}

	return &sendEvent.Request{
		BookingID: bookingID,
		Event:     event,
		Actor:     actor,
		Metadata:  r.Metadata,
	}, nil
}
