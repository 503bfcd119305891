package hansard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"

	"github.com/openparl/hansard/internal/domain"
)

var (
	// gidDateRe strips the leading sitting-date component of a gid when
	// building fragment anchors ("2015-03-02a.1.2" anchors as "g1.2").
	gidDateRe = regexp.MustCompile(`^\d{4}-\d\d-\d\d[a-z]*\.`)

	// pbcGidRe strips the committee and sitting counters from a Public
	// Bill Committee gid; the bill page supplies that context instead.
	pbcGidRe = regexp.MustCompile(`^.*?_.*?_`)
)

// listURL places a row within its full list view: headings link to their
// own list page, leaf rows link to the containing subsection's page with a
// fragment anchor. extra query parameters (search terms, member filters)
// are carried through.
func (sn *Session) listURL(ctx context.Context, major domain.Major, row domain.ItemRow, extra url.Values) (string, error) {
	page, gid, err := sn.pageAndGid(ctx, major, row, major.ListPage)
	if err != nil {
		return "", err
	}

	if row.HType.IsHeading() {
		return page + "?" + encodeID(gid, extra), nil
	}

	parentGid, err := sn.gidOf(ctx, row.SubsectionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("fetch parent gid of %d: %w", row.EpobjectID, err)
	}
	if major.ID == domain.MajorPBC {
		parentGid = pbcGidRe.ReplaceAllString(parentGid, "")
	}
	anchor := gidDateRe.ReplaceAllString(gid, "")
	return page + "?" + encodeID(parentGid, extra) + "#g" + anchor, nil
}

// commentsURL is the row's own page.
func (sn *Session) commentsURL(ctx context.Context, major domain.Major, row domain.ItemRow) (string, error) {
	page, gid, err := sn.pageAndGid(ctx, major, row, major.ItemPage)
	if err != nil {
		return "", err
	}
	return page + "?" + encodeID(gid, nil), nil
}

// pageAndGid picks the URL root and display gid for a row. Public Bill
// Committee rows live under their bill's page and drop the committee
// counters from the gid.
func (sn *Session) pageAndGid(ctx context.Context, major domain.Major, row domain.ItemRow, page string) (string, string, error) {
	gid := row.Gid
	if major.ID != domain.MajorPBC {
		return page, gid, nil
	}

	b, err := sn.bill(ctx, row.Minor)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return page, gid, nil
		}
		return "", "", fmt.Errorf("fetch bill %d: %w", row.Minor, err)
	}
	return billPageURL(b.session, b.title), pbcGidRe.ReplaceAllString(gid, ""), nil
}

func encodeID(gid string, extra url.Values) string {
	values := url.Values{"id": {gid}}
	for key, vals := range extra {
		values[key] = vals
	}
	return values.Encode()
}
