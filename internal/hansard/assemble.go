package hansard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/openparl/hansard/internal/domain"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)

// canonicalDate validates a caller-supplied date and zero-pads it to
// YYYY-MM-DD.
func canonicalDate(s string) (string, error) {
	if !dateRe.MatchString(s) {
		return "", &domain.ValidationError{Msg: fmt.Sprintf("bad date %q", s)}
	}
	t, err := time.Parse("2006-1-2", s)
	if err != nil {
		return "", &domain.ValidationError{Msg: fmt.Sprintf("bad date %q", s)}
	}
	return t.Format("2006-01-02"), nil
}

// ByDate assembles a whole sitting day: each section heading followed by
// its subsection headings, in order of appearance.
func (s *Service) ByDate(ctx context.Context, majorID int, date string) (*domain.DateView, error) {
	m, err := s.major(majorID)
	if err != nil {
		return nil, err
	}
	date, err = canonicalDate(date)
	if err != nil {
		return nil, err
	}

	sn := s.Begin()
	ex := extras{body: true, comment: true, excerpt: true}

	sections, err := sn.fetch(ctx, domain.ItemQuery{
		Where: []domain.Predicate{
			{Column: "major", Op: "=", Value: m.ID},
			{Column: "hdate", Op: "=", Value: date},
			{Column: "htype", Op: "=", Value: int(domain.HTypeSection)},
		},
		Order: "hpos",
	}, ex)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, domain.ErrNotFound
	}

	view := &domain.DateView{Major: m.ID, Date: date}
	for _, section := range sections {
		view.Rows = append(view.Rows, section)
		subsections, err := sn.fetch(ctx, domain.ItemQuery{
			Where: []domain.Predicate{
				{Column: "major", Op: "=", Value: m.ID},
				{Column: "section_id", Op: "=", Value: section.EpobjectID},
				{Column: "htype", Op: "=", Value: int(domain.HTypeSubsection)},
			},
			Order: "hpos",
		}, ex)
		if err != nil {
			return nil, err
		}
		view.Rows = append(view.Rows, subsections...)
	}

	view.NextPrev, err = sn.dateNextPrev(ctx, m, date)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (sn *Session) dateNextPrev(ctx context.Context, m domain.Major, date string) (domain.NextPrev, error) {
	var np domain.NextPrev
	for _, forward := range []bool{true, false} {
		adjacent, err := sn.svc.store.AdjacentDate(ctx, m.ID, date, forward)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return np, fmt.Errorf("fetch adjacent date: %w", err)
		}
		link := &domain.LinkTarget{
			Title: adjacent,
			URL:   m.ListPage + "?d=" + adjacent,
		}
		if forward {
			link.Body = "Next day"
			np.Next = link
		} else {
			link.Body = "Previous day"
			np.Prev = link
		}
	}

	year := date[:4]
	np.Up = &domain.LinkTarget{
		Body:  "All " + m.Plural + " of " + year,
		Title: year,
		URL:   m.YearPage + "?y=" + year,
	}
	return np, nil
}

// ByGid assembles the view for a single identifier: the item, its heading
// context, its display rows and sibling navigation. A non-nil Redirect in
// the returned view means the content lives at another identifier.
func (s *Service) ByGid(ctx context.Context, majorID int, gid string) (*domain.ItemView, error) {
	m, err := s.major(majorID)
	if err != nil {
		return nil, err
	}

	sn := s.Begin()
	row, redirect, err := sn.resolveGid(ctx, m, gid)
	if err != nil {
		return nil, err
	}
	if redirect != nil {
		return &domain.ItemView{Redirect: redirect}, nil
	}

	// Written categories address whole subsections; a link to an
	// individual answer lands on its containing subsection.
	if m.Type == domain.MajorOther && !row.HType.IsHeading() {
		parentGid, err := sn.gidOf(ctx, row.SubsectionID)
		if err != nil {
			return nil, fmt.Errorf("fetch parent of %q: %w", gid, err)
		}
		return &domain.ItemView{Redirect: &domain.Redirect{Gid: parentGid}}, nil
	}

	// Ministerial statement section headings are department names with a
	// single statement each; skip straight to it.
	if m.ID == domain.MajorWMS && row.HType == domain.HTypeSection {
		children, err := sn.svc.store.FetchItems(ctx, domain.ItemQuery{
			Where: []domain.Predicate{
				{Column: "section_id", Op: "=", Value: row.EpobjectID},
				{Column: "htype", Op: "=", Value: int(domain.HTypeSubsection)},
			},
			Order: "hpos",
			Limit: 1,
		})
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			return &domain.ItemView{Redirect: &domain.Redirect{Gid: children[0].Gid}}, nil
		}
	}

	return sn.assembleItem(ctx, m, row)
}

func (sn *Session) assembleItem(ctx context.Context, m domain.Major, row *domain.ItemRow) (*domain.ItemView, error) {
	rowExtras := extras{body: true, speaker: true, comment: true, votes: true}

	item, err := sn.enrich(ctx, *row, rowExtras)
	if err != nil {
		return nil, err
	}
	view := &domain.ItemView{Item: item}

	section, err := sn.fetchByEp(ctx, row.SectionID, extras{body: true, comment: true})
	if err != nil {
		return nil, fmt.Errorf("fetch section %d: %w", row.SectionID, err)
	}
	view.Section = *section
	if row.SubsectionID != row.SectionID {
		subsection, err := sn.fetchByEp(ctx, row.SubsectionID, extras{body: true, comment: true})
		if err != nil {
			return nil, fmt.Errorf("fetch subsection %d: %w", row.SubsectionID, err)
		}
		view.Subsection = subsection
	}

	switch row.HType {
	case domain.HTypeSection:
		direct, err := sn.fetch(ctx, domain.ItemQuery{
			Where: []domain.Predicate{
				{Column: "section_id", Op: "=", Value: row.EpobjectID},
				{Column: "subsection_id", Op: "=", Value: row.EpobjectID},
				{Column: "htype", Op: ">", Value: int(domain.HTypeSubsection)},
			},
			Order: "hpos",
		}, rowExtras)
		if err != nil {
			return nil, err
		}
		// A written section whose only direct row is the question intro
		// has its real content under subsection headings.
		if len(direct) > 0 && !(len(direct) == 1 && strings.Contains(direct[0].Body, "was asked")) {
			view.Rows = direct
			break
		}
		subsections, err := sn.fetch(ctx, domain.ItemQuery{
			Where: []domain.Predicate{
				{Column: "section_id", Op: "=", Value: row.EpobjectID},
				{Column: "htype", Op: "=", Value: int(domain.HTypeSubsection)},
			},
			Order: "hpos",
		}, extras{body: true, comment: true, excerpt: true})
		if err != nil {
			return nil, err
		}
		if len(subsections) == 1 {
			return &domain.ItemView{Redirect: &domain.Redirect{Gid: subsections[0].Gid}}, nil
		}
		view.SubRows = subsections
		view.Rows = direct
	case domain.HTypeSubsection:
		children, err := sn.fetch(ctx, domain.ItemQuery{
			Where: []domain.Predicate{
				{Column: "subsection_id", Op: "=", Value: row.EpobjectID},
				{Column: "htype", Op: ">", Value: int(domain.HTypeSubsection)},
			},
			Order: "hpos",
		}, rowExtras)
		if err != nil {
			return nil, err
		}
		view.Rows = children
	default:
		view.Rows = []domain.Item{item}
	}

	// Heading context rows lead the display list.
	if view.Subsection != nil && row.HType != domain.HTypeSubsection {
		view.Rows = append([]domain.Item{*view.Subsection}, view.Rows...)
	}
	if row.HType != domain.HTypeSection {
		view.Rows = append([]domain.Item{view.Section}, view.Rows...)
	}

	view.NextPrev, err = sn.itemNextPrev(ctx, m, row)
	if err != nil {
		return nil, err
	}
	view.Robots = sn.robots
	return view, nil
}

// fetchByEp loads and enriches a single row by primary key.
func (sn *Session) fetchByEp(ctx context.Context, epobjectID int64, ex extras) (*domain.Item, error) {
	items, err := sn.fetch(ctx, domain.ItemQuery{
		Where: []domain.Predicate{{Column: "epobject_id", Op: "=", Value: epobjectID}},
		Limit: 1,
	}, ex)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrNotFound
	}
	return &items[0], nil
}

func (sn *Session) itemNextPrev(ctx context.Context, m domain.Major, row *domain.ItemRow) (domain.NextPrev, error) {
	var np domain.NextPrev

	q := domain.AdjacentQuery{
		Major: m.ID,
		Date:  row.HDate,
		HPos:  row.HPos,
	}
	noun := "speaker"
	if row.HType.IsHeading() {
		q.Headings = true
		q.SubsectionOnly = m.SubsectionOnly()
		noun = m.Singular
	} else {
		q.SubsectionID = row.SubsectionID
	}

	for _, forward := range []bool{true, false} {
		q.Forward = forward
		id, err := sn.svc.store.AdjacentItem(ctx, q)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return np, fmt.Errorf("fetch adjacent item: %w", err)
		}
		target, err := sn.fetchByEp(ctx, id, extras{body: true, speaker: !row.HType.IsHeading()})
		if err != nil {
			return np, err
		}

		link := &domain.LinkTarget{}
		if row.HType.IsHeading() {
			link.Title = stripTags(target.Body)
			link.URL = target.ListURL
		} else {
			if target.Speaker != nil {
				link.Title = strings.TrimSpace(target.Speaker.FirstName + " " + target.Speaker.LastName)
			}
			link.URL = target.CommentsURL
		}
		if forward {
			link.Body = "Next " + noun
			np.Next = link
		} else {
			link.Body = "Previous " + noun
			np.Prev = link
		}
	}

	up, err := sn.upLink(ctx, m, row)
	if err != nil {
		return np, err
	}
	np.Up = up
	return np, nil
}

func (sn *Session) upLink(ctx context.Context, m domain.Major, row *domain.ItemRow) (*domain.LinkTarget, error) {
	if m.ID == domain.MajorPBC {
		b, err := sn.bill(ctx, row.Minor)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("fetch bill %d: %w", row.Minor, err)
		}
		return &domain.LinkTarget{
			Body:  "All sittings",
			Title: b.title,
			URL:   billPageURL(b.session, b.title),
		}, nil
	}

	if row.HType.IsHeading() {
		return &domain.LinkTarget{
			Body:  "All " + m.Title + " on " + row.HDate,
			Title: row.HDate,
			URL:   m.ListPage + "?d=" + row.HDate,
		}, nil
	}

	parent, err := sn.fetchByEp(ctx, row.SubsectionID, extras{body: true})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.LinkTarget{
		Body:  "See the whole debate",
		Title: stripTags(parent.Body),
		URL:   parent.ListURL,
	}, nil
}
