package hansard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/openparl/hansard/internal/domain"
)

// CalendarRequest selects the range of a sitting-day calendar. Month takes
// precedence (Year required), then Year, then RecentMonths; with nothing
// set the twelve months up to today are shown.
type CalendarRequest struct {
	Year         int
	Month        int
	RecentMonths int
}

// Calendar builds a year/month grid of the days with sittings. Months in
// the requested range with no sittings are present and empty so callers
// can render a full grid.
func (s *Service) Calendar(ctx context.Context, majorID int, req CalendarRequest) (*domain.CalendarView, error) {
	m, err := s.major(majorID)
	if err != nil {
		return nil, err
	}

	var first, final time.Time
	now := time.Now()
	switch {
	case req.Month != 0:
		if req.Year == 0 {
			return nil, &domain.ValidationError{Msg: "month without year"}
		}
		if req.Month < 1 || req.Month > 12 {
			return nil, &domain.ValidationError{Msg: fmt.Sprintf("bad month %d", req.Month)}
		}
		first = time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
		final = first.AddDate(0, 1, -1)
	case req.Year != 0:
		first = time.Date(req.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		final = time.Date(req.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
	default:
		months := req.RecentMonths
		if months == 0 {
			months = 12
		}
		if months < 1 || months > 12 {
			return nil, &domain.ValidationError{Msg: fmt.Sprintf("bad month count %d", months)}
		}
		final = now
		first = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1-months, 0)
	}

	sn := s.Begin()
	view := &domain.CalendarView{
		Major: m.ID,
		Years: map[int]map[int][]int{},
	}

	if onDay, err := sn.mostRecentDay(ctx, m.ID); err == nil {
		view.OnDay = onDay
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	dates, err := s.store.SittingDates(ctx, m.ID, first.Format("2006-01-02"), final.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("fetch sitting dates: %w", err)
	}
	for _, d := range dates {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			s.logger.Warn("malformed sitting date", "date", d)
			continue
		}
		month := ensureMonth(view.Years, t.Year(), int(t.Month()))
		view.Years[t.Year()][int(t.Month())] = append(month, t.Day())
	}

	// Empty months still render.
	for cur := first; !cur.After(final); cur = cur.AddDate(0, 1, 0) {
		ensureMonth(view.Years, cur.Year(), int(cur.Month()))
	}

	if req.Year != 0 && req.Month == 0 {
		view.NextPrev, err = sn.yearNextPrev(ctx, m, req.Year)
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}

func ensureMonth(years map[int]map[int][]int, year, month int) []int {
	if years[year] == nil {
		years[year] = map[int][]int{}
	}
	if years[year][month] == nil {
		years[year][month] = []int{}
	}
	return years[year][month]
}

func (sn *Session) yearNextPrev(ctx context.Context, m domain.Major, year int) (domain.NextPrev, error) {
	var np domain.NextPrev
	for _, forward := range []bool{true, false} {
		adjacent, err := sn.svc.store.AdjacentYear(ctx, m.ID, year, forward)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return np, fmt.Errorf("fetch adjacent year: %w", err)
		}
		link := &domain.LinkTarget{
			Title: strconv.Itoa(adjacent),
			URL:   m.YearPage + "?y=" + strconv.Itoa(adjacent),
		}
		if forward {
			link.Body = "Next year"
			np.Next = link
		} else {
			link.Body = "Previous year"
			np.Prev = link
		}
	}
	return np, nil
}
