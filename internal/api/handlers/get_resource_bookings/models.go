package get_resource_bookings

import (
	"net/url"
	"time"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	"github.com/m04kA/SMC-LifecycleService/internal/service/bookings/models"
)

// ParseQuery собирает фильтр расписания из query-параметров
// Поддерживаются startDate, endDate (YYYY-MM-DD), state, includeTerminal
func ParseQuery(resourceID string, query url.Values) (*models.GetResourceBookingsRequest, error) {
	req := &models.GetResourceBookingsRequest{
		ResourceID:      resourceID,
		IncludeTerminal: query.Get("includeTerminal") == "true",
	}

	if raw := query.Get("startDate"); raw != "" {
		t, err := time.Parse(domain.DateFormat, raw)
		if err != nil {
			return nil, err
		}
		req.StartDate = &t
	}

	if raw := query.Get("endDate"); raw != "" {
		t, err := time.Parse(domain.DateFormat, raw)
		if err != nil {
			return nil, err
		}
		req.EndDate = &t
	}

	if state := query.Get("state"); state != "" {
		req.State = &state
	}

	return req, nil
}
