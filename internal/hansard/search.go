package hansard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openparl/hansard/internal/domain"
)

const (
	defaultPerPage = 20
	maxPerPage     = 1000
)

// mainChambers lists the calendar chambers whose past events are dropped
// from results; their proceedings appear as transcripts once published.
var mainChambers = map[string]bool{
	"Commons: Main Chamber":     true,
	"Lords: Main Chamber":       true,
	"Commons: Westminster Hall": true,
}

// Search runs a query against the external index and maps each ranked hit
// to a displayable result. Hits the database no longer knows are dropped
// with a warning rather than failing the page.
func (s *Service) Search(ctx context.Context, query string, page, perPage int, order string) (*domain.SearchView, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &domain.ValidationError{Msg: "empty search query"}
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	result, err := s.index.Search(ctx, query, offset, perPage, order)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	sn := s.Begin()
	view := &domain.SearchView{
		Query:        query,
		Description:  result.Description,
		Spelling:     result.Spelling,
		Page:         page,
		PerPage:      perPage,
		FirstResult:  offset + 1,
		TotalResults: result.Total,
		Rows:         []domain.SearchResult{},
	}

	today := time.Now().Format("2006-01-02")
	for _, hit := range result.Hits {
		var (
			res *domain.SearchResult
		)
		if strings.Contains(hit.Gid, "calendar") {
			res, err = sn.mapCalendarHit(ctx, hit, today)
		} else {
			res, err = sn.mapTranscriptHit(ctx, hit, result.Highlighter, query)
		}
		if err != nil {
			return nil, err
		}
		if res == nil {
			continue
		}
		view.Rows = append(view.Rows, *res)
	}
	return view, nil
}

// mapCalendarHit resolves a future-business hit. Past events of the main
// chambers are dropped; other hits that no longer exist are dropped too.
func (sn *Session) mapCalendarHit(ctx context.Context, hit domain.SearchHit, today string) (*domain.SearchResult, error) {
	id, err := strconv.ParseInt(domain.StripNamespace(hit.Gid), 10, 64)
	if err != nil {
		sn.svc.logger.Warn("malformed calendar hit", "gid", hit.Gid)
		return nil, nil
	}

	ev, err := sn.svc.store.FutureEvent(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch calendar entry %d: %w", id, err)
	}

	past := ev.EventDate < today
	if past && mainChambers[ev.Chamber] {
		return nil, nil
	}

	res := &domain.SearchResult{
		Relevance:     hit.Relevance,
		CollapseGroup: hit.CollapseGroup,
		Calendar:      true,
		Chamber:       ev.Chamber,
	}
	res.HDate = ev.EventDate
	res.HPos = ev.Pos
	res.Body = ev.Title
	res.ListURL = fmt.Sprintf("/calendar/?d=%s#cal%d", ev.EventDate, ev.ID)

	tense := "Upcoming"
	if past {
		tense = "Previous"
	}
	res.Parent = domain.Breadcrumb{
		Body:    tense + " Business: " + ev.Chamber,
		ListURL: "/calendar/?d=" + ev.EventDate,
	}
	return res, nil
}

func (sn *Session) mapTranscriptHit(ctx context.Context, hit domain.SearchHit, hl domain.Highlighter, query string) (*domain.SearchResult, error) {
	rows, err := sn.svc.store.FetchItems(ctx, domain.ItemQuery{
		Amount: domain.ItemAmount{Body: true, Speaker: true},
		Where:  []domain.Predicate{{Column: "gid", Op: "=", Value: hit.Gid}},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch search hit %q: %w", hit.Gid, err)
	}
	if len(rows) == 0 {
		sn.svc.logger.Warn("search hit missing from store", "gid", hit.Gid)
		return nil, nil
	}
	if len(rows) > 1 {
		sn.svc.logger.Warn("search hit matches multiple rows", "gid", hit.Gid, "rows", len(rows))
	}
	row := rows[0]

	m, ok := sn.svc.majors[row.Major]
	if !ok {
		sn.svc.logger.Warn("search hit in unknown major", "gid", hit.Gid, "major", row.Major)
		return nil, nil
	}

	res := &domain.SearchResult{
		Item:          domain.Item{ItemRow: row},
		Relevance:     hit.Relevance,
		CollapseGroup: hit.CollapseGroup,
	}
	res.Extract = prepareExtract(hl, row.Body)

	withQuery := url.Values{"s": {query}}
	res.ListURL, err = sn.listURL(ctx, m, row, withQuery)
	if err != nil {
		return nil, err
	}
	if row.SpeakerID > 0 {
		res.Speaker, err = sn.speaker(ctx, row.SpeakerID, row.HDate)
		if err != nil {
			return nil, err
		}
	}

	if err := sn.searchBreadcrumb(ctx, m, &row, res, hl, withQuery); err != nil {
		return nil, err
	}
	return res, nil
}

// searchBreadcrumb fills in the contextual parent line of a result and
// adjusts heading hits so the list never shows a heading as its own
// context.
func (sn *Session) searchBreadcrumb(ctx context.Context, m domain.Major, row *domain.ItemRow, res *domain.SearchResult, hl domain.Highlighter, withQuery url.Values) error {
	section, subsection, err := sn.headingBodies(ctx, row)
	if err != nil {
		return err
	}

	crumb := stripTags(section.Body)
	targetRow := section.ItemRow
	if subsection != nil {
		crumb += ": " + stripTags(subsection.Body)
		targetRow = subsection.ItemRow
	}

	if m.Type == domain.MajorDebate {
		switch m.ID {
		case domain.MajorNIAssembly:
			crumb = "Northern Ireland Assembly: " + crumb
		case domain.MajorPBC:
			crumb = "Public Bill Committee: " + crumb
		case domain.MajorSPDebates:
			crumb = "Scottish Parliament: " + crumb
		}
		if row.HType == domain.HTypeSection {
			// The heading is already the context line; don't repeat it.
			res.Item.Body = ""
			res.Extract = ""
		}
	} else {
		crumb = m.Title + ": " + crumb
		switch row.HType {
		case domain.HTypeSubsection:
			// A written heading hit stands in for its question: the
			// heading completes the context line and the question text
			// takes the heading's place in the result body.
			crumb += ": " + stripTags(row.Body)
			targetRow = *row
			first, err := sn.firstChild(ctx, row.EpobjectID)
			if err != nil {
				return err
			}
			if first != nil {
				res.Item.Body = first.Body
				res.Extract = prepareExtract(hl, first.Body)
				if first.SpeakerID > 0 {
					res.Speaker, err = sn.speaker(ctx, first.SpeakerID, first.HDate)
					if err != nil {
						return err
					}
				}
			}
		case domain.HTypeSection:
			res.Item.Body = ""
			res.Extract = ""
		}
	}

	listURL, err := sn.listURL(ctx, m, targetRow, withQuery)
	if err != nil {
		return err
	}
	res.Parent = domain.Breadcrumb{Body: crumb, ListURL: listURL}
	return nil
}

// headingBodies loads the section heading and, when distinct, the
// subsection heading of a row.
func (sn *Session) headingBodies(ctx context.Context, row *domain.ItemRow) (section *domain.Item, subsection *domain.Item, err error) {
	section, err = sn.fetchByEp(ctx, row.SectionID, extras{body: true})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.Item{}, nil, nil
		}
		return nil, nil, fmt.Errorf("fetch section of %q: %w", row.Gid, err)
	}
	if row.SubsectionID == row.SectionID || row.SubsectionID == row.EpobjectID {
		return section, nil, nil
	}
	subsection, err = sn.fetchByEp(ctx, row.SubsectionID, extras{body: true})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return section, nil, nil
		}
		return nil, nil, fmt.Errorf("fetch subsection of %q: %w", row.Gid, err)
	}
	return section, subsection, nil
}

// firstChild returns the first leaf row under a heading, with body and
// speaker, or nil when the heading is empty.
func (sn *Session) firstChild(ctx context.Context, epobjectID int64) (*domain.ItemRow, error) {
	rows, err := sn.svc.store.FetchItems(ctx, domain.ItemQuery{
		Amount: domain.ItemAmount{Body: true, Speaker: true},
		Where: []domain.Predicate{
			{Column: "subsection_id", Op: "=", Value: epobjectID},
			{Column: "htype", Op: ">", Value: int(domain.HTypeSubsection)},
		},
		Order: "hpos",
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch first child of %d: %w", epobjectID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
