package hansard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openparl/hansard/internal/domain"
)

// maxRedirectHops bounds redirect chain walks. Chains in the wild are one
// or two hops; anything longer than this is a loop in the data.
const maxRedirectHops = 32

// gidMigration is one historical identifier fixup: gids matching From were
// republished under To and old links should land on the new location.
type gidMigration struct {
	From string
	To   string
}

// Renumbered sitting days. The order matters; earlier entries were broader
// republishes and must be tried first.
var gidMigrations = []gidMigration{
	{"2006-05-10a", "2006-05-10c"},
	{"2006-05-10a", "2006-05-11d"},
	{"2006-05-11b", "2006-05-11d"},
	{"2006-05-11b", "2006-05-12c"},
	{"2006-05-11c", "2006-05-10c"},
	{"2006-05-12b", "2006-05-11d"},
	{"2007-01-08", "2007-01-05"},
	{"2007-02-19", "2007-02-16"},
	{"2005-10-10d", "2005-09-12a"},
	{"2005-10-14a", "2005-10-13b"},
	{"2005-10-18b", "2005-10-10e"},
	{"2005-11-17b", "2005-11-15c"},
	{"2007-01-08a", "2007-01-08e"},
}

// lordsRelettering applies to gids carrying the Lords "L" suffix, whose
// sitting-day letters were shifted on republish.
var lordsRelettering = []gidMigration{
	{"a", "b"},
	{"b", "c"},
	{"c", "d"},
	{"d", "e"},
}

// resolveGid maps a caller-supplied identifier to a live row. It returns
// either the row, or a Redirect carrying the canonical identifier when the
// content moved, or ErrNotFound.
func (sn *Session) resolveGid(ctx context.Context, major domain.Major, gid string) (*domain.ItemRow, *domain.Redirect, error) {
	full := major.GidPrefix + gid

	final, moved, err := sn.followRedirects(ctx, full)
	if err != nil {
		return nil, nil, err
	}
	if moved {
		return nil, &domain.Redirect{Gid: domain.StripNamespace(final)}, nil
	}

	row, err := sn.lookupGid(ctx, full)
	if err != nil {
		return nil, nil, err
	}
	if row != nil {
		return row, nil, nil
	}

	for _, candidate := range migrationCandidates(gid) {
		resolved, err := sn.candidateTarget(ctx, major.GidPrefix+candidate)
		if err != nil {
			return nil, nil, err
		}
		if resolved != "" {
			return nil, &domain.Redirect{Gid: domain.StripNamespace(resolved)}, nil
		}
	}

	return nil, nil, domain.ErrNotFound
}

// followRedirects walks the redirect table to its fixed point. moved
// reports whether any hop was taken.
func (sn *Session) followRedirects(ctx context.Context, gid string) (final string, moved bool, err error) {
	cur := gid
	for hop := 0; hop < maxRedirectHops; hop++ {
		next, err := sn.svc.store.RedirectTarget(ctx, cur)
		if errors.Is(err, domain.ErrNotFound) {
			return cur, hop > 0, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("follow redirect from %q: %w", cur, err)
		}
		cur = next
	}
	// Still redirecting after this many hops means the table loops.
	return "", false, domain.ErrNotFound
}

// lookupGid fetches the bare row for a full gid, or nil when absent.
func (sn *Session) lookupGid(ctx context.Context, gid string) (*domain.ItemRow, error) {
	rows, err := sn.svc.store.FetchItems(ctx, domain.ItemQuery{
		Where: []domain.Predicate{{Column: "gid", Op: "=", Value: gid}},
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("look up gid %q: %w", gid, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// candidateTarget resolves a migration candidate, following any redirects
// recorded against it. Returns "" when the candidate does not exist either.
func (sn *Session) candidateTarget(ctx context.Context, full string) (string, error) {
	final, _, err := sn.followRedirects(ctx, full)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	row, err := sn.lookupGid(ctx, final)
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", nil
	}
	return final, nil
}

// migrationCandidates lists the alternative spellings of a gid to try, in
// historical order. Only spellings that actually differ are returned.
func migrationCandidates(gid string) []string {
	var candidates []string
	add := func(c string) {
		if c != gid {
			candidates = append(candidates, c)
		}
	}

	// The oldest links predate sitting-day letters entirely.
	add(strings.Replace(gid, "a", "", 1))

	if strings.HasSuffix(gid, "L") {
		for _, m := range lordsRelettering {
			if strings.Contains(gid, m.From) {
				add(strings.Replace(gid, m.From, m.To, 1))
			}
		}
	}

	for _, m := range gidMigrations {
		if strings.Contains(gid, m.From) {
			add(strings.ReplaceAll(gid, m.From, m.To))
		}
	}
	return candidates
}
