package catalog

import (
	"context"
	"strings"

	"github.com/geocoder89/homehub/internal/domain/service"
)

type ServiceLister interface {
	List(ctx context.Context) ([]service.Service, error)
}

type Query struct {
	services   ServiceLister
	classifier Classifier
}

func NewQuery(services ServiceLister, classifier Classifier) *Query {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	return &Query{services: services, classifier: classifier}
}

// List filters by a case-insensitive name substring (empty matches all) and an
// optional category, keeping catalog order. No match is an empty slice, not an error.
func (q *Query) List(ctx context.Context, term string, category Category) ([]service.Service, error) {
	services, err := q.services.List(ctx)
	if err != nil {
		return nil, err
	}

	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]service.Service, 0, len(services))

	for _, s := range services {
		if term != "" && !strings.Contains(strings.ToLower(s.Name), term) {
			continue
		}
		if category != "" && q.classifier.Classify(s.Name) != category {
			continue
		}
		out = append(out, s)
	}

	return out, nil
}

func (q *Query) Classify(s service.Service) Category {
	return q.classifier.Classify(s.Name)
}
