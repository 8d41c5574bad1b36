package booking

import (
	"context"

	"github.com/geocoder89/homehub/internal/domain/reservation"
	"github.com/geocoder89/homehub/internal/domain/service"
)

// Summary is what a reservation list shows.
type Summary struct {
	Reservation reservation.Reservation `json:"reservation"`
	ServiceName string                  `json:"serviceName"`
	Rateable    bool                    `json:"rateable"`
}

// Summarize resolves service names; a dangling service id gets the placeholder name.
func (s *Service) Summarize(ctx context.Context, items []reservation.Reservation) ([]Summary, error) {
	services, err := s.services.List(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(services))
	for _, svc := range services {
		names[svc.ID] = svc.Name
	}

	out := make([]Summary, 0, len(items))
	for _, res := range items {
		name, ok := names[res.ServiceID]
		if !ok {
			name = service.PlaceholderName
		}

		out = append(out, Summary{
			Reservation: res,
			ServiceName: name,
			Rateable:    res.Rateable(),
		})
	}

	return out, nil
}
