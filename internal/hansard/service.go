// Package hansard assembles parliamentary transcript views: sitting days,
// single items with context, search result pages, calendars and member
// contribution lists.
package hansard

import (
	"fmt"
	"log/slog"

	"github.com/openparl/hansard/internal/domain"
)

// Service builds transcript views from the relational store and the
// external search index. It is safe for concurrent use; per-request state
// lives in Session.
type Service struct {
	store  domain.Store
	index  domain.SearchIndex
	majors map[int]domain.Major
	logger *slog.Logger
}

func NewService(store domain.Store, index domain.SearchIndex, majors map[int]domain.Major, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		index:  index,
		majors: majors,
		logger: logger,
	}
}

func (s *Service) major(id int) (domain.Major, error) {
	m, ok := s.majors[id]
	if !ok {
		return domain.Major{}, &domain.ValidationError{Msg: fmt.Sprintf("unknown major %d", id)}
	}
	return m, nil
}

// Begin starts a Session. A Session memoizes lookups that repeat across the
// rows of one response (speakers, heading gids, bill details) and must not
// outlive the request.
func (s *Service) Begin() *Session {
	return &Session{
		svc:       s,
		speakers:  map[int64]*domain.Speaker{},
		gidByEp:   map[int64]string{},
		bills:     map[int]billInfo{},
		recentDay: map[int]string{},
	}
}
