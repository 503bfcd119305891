package hansard

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/openparl/hansard/internal/domain"
)

var columnRe = regexp.MustCompile(`^\w+$`)

// Recent lists the latest sitting dates of a category, newest first.
func (s *Service) Recent(ctx context.Context, majorID int, limit int) (*domain.RecentView, error) {
	m, err := s.major(majorID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPerPage
	}

	dates, err := s.store.RecentDates(ctx, m.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch recent dates: %w", err)
	}

	view := &domain.RecentView{Major: m.ID, Rows: []domain.DateLink{}}
	for _, d := range dates {
		view.Rows = append(view.Rows, domain.DateLink{
			Date:    d,
			ListURL: m.ListPage + "?d=" + d,
		})
	}
	return view, nil
}

// MostRecentDay reports the latest sitting day of a category.
func (s *Service) MostRecentDay(ctx context.Context, majorID int) (*domain.MostRecentDay, error) {
	m, err := s.major(majorID)
	if err != nil {
		return nil, err
	}
	date, err := s.Begin().mostRecentDay(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return &domain.MostRecentDay{
		Date:    date,
		ListURL: m.ListPage + "?d=" + date,
	}, nil
}

// TotalItems counts all rows of a category.
func (s *Service) TotalItems(ctx context.Context, majorID int) (int, error) {
	m, err := s.major(majorID)
	if err != nil {
		return 0, err
	}
	return s.store.CountItems(ctx, m.ID)
}

// ByColumn lists the rows printed in one column of the official report on
// one sitting day.
func (s *Service) ByColumn(ctx context.Context, majorID int, date, column string) ([]domain.Item, error) {
	m, err := s.major(majorID)
	if err != nil {
		return nil, err
	}
	date, err = canonicalDate(date)
	if err != nil {
		return nil, err
	}
	if !columnRe.MatchString(column) {
		return nil, &domain.ValidationError{Msg: fmt.Sprintf("bad column %q", column)}
	}

	sn := s.Begin()
	items, err := sn.fetch(ctx, domain.ItemQuery{
		Where: []domain.Predicate{
			{Column: "major", Op: "=", Value: m.ID},
			{Column: "hdate", Op: "=", Value: date},
			{Column: "gid", Op: "LIKE", Value: "%." + column + ".%"},
		},
		Order: "hpos",
	}, extras{body: true, comment: true})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrNotFound
	}
	return items, nil
}

// ByMember lists the most recent contributions of a person's member
// records, newest first. A majorID of zero spans all categories.
func (s *Service) ByMember(ctx context.Context, memberIDs []int64, majorID int, limit int) (*domain.MemberView, error) {
	if len(memberIDs) == 0 {
		return nil, &domain.ValidationError{Msg: "no member ids"}
	}
	var majorTitle string
	if majorID != 0 {
		m, err := s.major(majorID)
		if err != nil {
			return nil, err
		}
		majorTitle = m.Title
	}
	if limit <= 0 {
		limit = defaultPerPage
	}

	speeches, err := s.store.MemberSpeeches(ctx, memberIDs, majorID, limit)
	if err != nil {
		return nil, err
	}

	sn := s.Begin()
	view := &domain.MemberView{Rows: []domain.MemberItem{}}
	for _, sp := range speeches {
		m, ok := s.majors[sp.Major]
		if !ok {
			continue
		}

		title := majorTitle
		if title == "" {
			title = m.Title
		}
		parts := []string{}
		sub := stripTags(sp.SubsectionBody)
		sec := stripTags(sp.SectionBody)
		if sub != "" && sub != sec {
			parts = append(parts, sub)
		}
		if sec != "" {
			parts = append(parts, sec)
		}
		parts = append(parts, title)

		// The join already carried the parent gid; seed the cache so the
		// URL builder does not refetch it.
		sn.gidByEp[sp.SubsectionID] = sp.SubsectionGid
		listURL, err := sn.listURL(ctx, m, sp.ItemRow, nil)
		if err != nil {
			return nil, err
		}
		parentURL, err := sn.listURL(ctx, m, domain.ItemRow{
			HType: domain.HTypeSubsection,
			Gid:   sp.SubsectionGid,
			Major: sp.Major,
			Minor: sp.Minor,
		}, nil)
		if err != nil {
			return nil, err
		}

		view.Rows = append(view.Rows, domain.MemberItem{
			ItemRow: sp.ItemRow,
			Parent: domain.Breadcrumb{
				Body:    strings.Join(parts, " | "),
				ListURL: parentURL,
			},
			ListURL: listURL,
		})
	}
	return view, nil
}
