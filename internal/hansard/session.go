package hansard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openparl/hansard/internal/domain"
)

type billInfo struct {
	title   string
	session string
}

// Session carries per-request caches. Speaker rows, heading gids and bill
// details recur many times within one view; fetching each once keeps a
// fifty-row page at a handful of queries instead of hundreds.
type Session struct {
	svc *Service

	speakers  map[int64]*domain.Speaker
	gidByEp   map[int64]string
	bills     map[int]billInfo
	recentDay map[int]string

	// robots is set to "noindex" when a view touches a suppressed row.
	robots string
}

// houseURLRoots maps a member's house to their canonical page root.
var houseURLRoots = map[int]string{
	0: "/royal/",
	1: "/mp/",
	2: "/peer/",
	3: "/mla/",
	4: "/msp/",
}

// speaker returns the enriched speaker for a member id, with offices as of
// date. Cached per session; the date of first lookup wins, which matches
// how views only ever span a single sitting day.
func (sn *Session) speaker(ctx context.Context, memberID int64, date string) (*domain.Speaker, error) {
	if sp, ok := sn.speakers[memberID]; ok {
		return sp, nil
	}

	row, err := sn.svc.store.Member(ctx, memberID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			sn.speakers[memberID] = nil
			return nil, nil
		}
		return nil, fmt.Errorf("fetch member %d: %w", memberID, err)
	}

	sp := &domain.Speaker{
		MemberID:     row.MemberID,
		PersonID:     row.PersonID,
		Title:        row.Title,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		House:        row.House,
		Constituency: row.Constituency,
		Party:        domain.PartyName(row.Party),
	}
	if root, ok := houseURLRoots[row.House]; ok {
		sp.URL = fmt.Sprintf("%s?m=%d", root, row.MemberID)
	}

	offices, err := sn.svc.store.Offices(ctx, row.PersonID, date)
	if err != nil {
		return nil, fmt.Errorf("fetch offices for person %d: %w", row.PersonID, err)
	}
	for _, o := range offices {
		// The Lib Dem shadow cabinet scrape stopped being meaningful once
		// the party entered government.
		if o.Source == "chgpages/libdem" && date > "2009-01-15" {
			continue
		}
		if o.Position == "" || o.Position == "Chairman" {
			continue
		}
		sp.Offices = append(sp.Offices, domain.Office{
			Dept:     o.Dept,
			Position: o.Position,
			Source:   o.Source,
		})
	}

	sn.speakers[memberID] = sp
	return sp, nil
}

// gidOf resolves an epobject id to its stripped gid, cached per session.
func (sn *Session) gidOf(ctx context.Context, epobjectID int64) (string, error) {
	if gid, ok := sn.gidByEp[epobjectID]; ok {
		return gid, nil
	}
	gid, err := sn.svc.store.GidOf(ctx, epobjectID)
	if err != nil {
		return "", err
	}
	sn.gidByEp[epobjectID] = gid
	return gid, nil
}

// bill resolves a bill id, cached per session.
func (sn *Session) bill(ctx context.Context, id int) (billInfo, error) {
	if b, ok := sn.bills[id]; ok {
		return b, nil
	}
	title, session, err := sn.svc.store.Bill(ctx, id)
	if err != nil {
		return billInfo{}, err
	}
	b := billInfo{title: title, session: session}
	sn.bills[id] = b
	return b, nil
}

// mostRecentDay returns the latest sitting date of a major, cached per
// session.
func (sn *Session) mostRecentDay(ctx context.Context, major int) (string, error) {
	if d, ok := sn.recentDay[major]; ok {
		return d, nil
	}
	d, err := sn.svc.store.MostRecentDate(ctx, major)
	if err != nil {
		return "", err
	}
	sn.recentDay[major] = d
	return d, nil
}

// billPageURL builds the committee page path for a bill title and session,
// e.g. "/pbc/2014-15/Finance_Bill/".
func billPageURL(session, title string) string {
	return "/pbc/" + session + "/" + strings.ReplaceAll(title, " ", "_") + "/"
}
