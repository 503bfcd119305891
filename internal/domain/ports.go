package domain

import (
	"context"
	"errors"
)

// ErrNotFound reports that no row exists for the requested identifier or
// date. It is an expected outcome (stale links, bad input), not a fault.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed caller input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// ItemAmount selects the optional columns FetchItems returns per row. The
// body join is the most expensive part of the query and is elided unless
// something asked for it.
type ItemAmount struct {
	Body    bool
	Speaker bool
}

// Predicate is one WHERE term. Column and Op must be on the store's
// allow-list; Value is always bound as a parameter.
type Predicate struct {
	Column string
	Op     string
	Value  any
}

// ItemQuery describes a fetch from the transcript table. Predicates are
// combined with AND. Order must be on the store's allow-list since it cannot
// be parameterized. Limit of zero means no limit.
type ItemQuery struct {
	Amount ItemAmount
	Where  []Predicate
	Order  string
	Limit  int
}

// AdjacentQuery finds the nearest row before or after a position on one
// sitting date, restricted to either heading rows or leaf rows of a single
// subsection.
type AdjacentQuery struct {
	Major   int
	Date    string
	HPos    int
	Forward bool

	// Headings selects heading rows; SubsectionOnly further restricts the
	// search to subsection headings. When Headings is false the search
	// covers non-heading rows of SubsectionID only.
	Headings       bool
	SubsectionOnly bool
	SubsectionID   int64
}

// FutureEvent is a future-business calendar entry, addressed by a distinct
// identifier namespace in the search index.
type FutureEvent struct {
	ID        int64
	EventDate string
	Pos       int
	Chamber   string
	Title     string
	Witnesses string
}

// MemberSpeechRow is one row of a member's recent-contributions query,
// carrying the parent heading bodies needed for breadcrumbs.
type MemberSpeechRow struct {
	ItemRow
	SectionBody    string
	SubsectionBody string
	SubsectionGid  string
}

// Store is the read-only relational backend for the retrieval engine.
type Store interface {
	// FetchItems runs an ItemQuery and returns matching rows in the
	// requested order. It returns an empty slice, never nil, when nothing
	// matches, and an error for any disallowed column, operator or order.
	FetchItems(ctx context.Context, q ItemQuery) ([]ItemRow, error)

	// RedirectTarget returns the redirect destination recorded for a full
	// (namespaced) gid, or ErrNotFound when no redirect row exists.
	RedirectTarget(ctx context.Context, gid string) (string, error)

	// GidOf returns the namespace-stripped gid of an epobject, or
	// ErrNotFound.
	GidOf(ctx context.Context, epobjectID int64) (string, error)

	// Member returns a member row by id, or ErrNotFound.
	Member(ctx context.Context, memberID int64) (*MemberRow, error)

	// Offices returns the offices whose validity interval contains date.
	Offices(ctx context.Context, personID int64, date string) ([]OfficeRow, error)

	// VoteCounts returns the vote tally for an item, with zero counts for
	// absent rows.
	VoteCounts(ctx context.Context, epobjectID int64) (VoteTally, error)

	// CommentCount counts visible comments directly on an item.
	CommentCount(ctx context.Context, epobjectID int64) (int, error)

	// HeadingCommentCount counts visible comments on all rows contained in
	// a heading; sectionOnly restricts it to rows with no subsection
	// heading above them.
	HeadingCommentCount(ctx context.Context, epobjectID int64, sectionOnly bool) (int, error)

	// EarliestComment returns the earliest visible comment on an item, or
	// nil when there is none.
	EarliestComment(ctx context.Context, epobjectID int64) (*Comment, error)

	// FirstBody returns the body of the first row contained in a heading,
	// or "" when the heading is empty.
	FirstBody(ctx context.Context, epobjectID int64, sectionOnly bool) (string, error)

	// SpeechCount counts speech rows contained in a heading.
	SpeechCount(ctx context.Context, epobjectID int64, sectionOnly bool) (int, error)

	// AdjacentItem returns the epobject id of the nearest qualifying row,
	// or ErrNotFound.
	AdjacentItem(ctx context.Context, q AdjacentQuery) (int64, error)

	// AdjacentDate returns the nearest sitting date strictly after (or
	// before) date for a major, or ErrNotFound.
	AdjacentDate(ctx context.Context, major int, date string, forward bool) (string, error)

	// AdjacentYear returns the nearest year with sittings strictly after
	// (or before) year for a major, or ErrNotFound.
	AdjacentYear(ctx context.Context, major int, year int, forward bool) (int, error)

	// MostRecentDate returns the latest sitting date for a major, or
	// ErrNotFound when the major has no rows at all.
	MostRecentDate(ctx context.Context, major int) (string, error)

	// RecentDates returns distinct sitting dates for a major, newest
	// first. Limit of zero means all.
	RecentDates(ctx context.Context, major int, limit int) ([]string, error)

	// SittingDates returns distinct sitting dates within [first, final],
	// oldest first.
	SittingDates(ctx context.Context, major int, first, final string) ([]string, error)

	// CountItems returns the total number of rows for a major.
	CountItems(ctx context.Context, major int) (int, error)

	// FutureEvent returns a future-business entry by id, or ErrNotFound.
	// Deleted entries are never returned.
	FutureEvent(ctx context.Context, id int64) (*FutureEvent, error)

	// Mentions returns cross-references for a question or committee code,
	// ordered by date then type.
	Mentions(ctx context.Context, code string) ([]Mention, error)

	// Bill returns a bill's title and session, or ErrNotFound.
	Bill(ctx context.Context, id int) (title string, session string, err error)

	// MemberSpeeches returns the most recent contributions of a set of
	// members, newest first, with parent heading bodies attached. A major
	// of zero spans the whole corpus.
	MemberSpeeches(ctx context.Context, memberIDs []int64, major int, limit int) ([]MemberSpeechRow, error)
}

// Search orders accepted by the external index.
const (
	OrderRelevance = "relevance"
	OrderNewest    = "newest"
	OrderOldest    = "oldest"
)

// SearchHit is one externally-ranked identifier.
type SearchHit struct {
	// Gid is the full (namespaced) identifier. Future-business entries
	// live in a "calendar" namespace.
	Gid           string
	Relevance     float64
	CollapseGroup int
}

// Highlighter marks up query terms in already-ranked text. Implementations
// are bound to the query that produced a SearchPage.
type Highlighter interface {
	// Highlight wraps matched terms for display.
	Highlight(text string) string

	// FirstMatch returns the byte offset of the first matched term, or 0
	// when nothing matches.
	FirstMatch(text string) int
}

// SearchPage is one page of ranked results from the external index.
type SearchPage struct {
	Description string
	Spelling    string
	Total       int
	Hits        []SearchHit
	Highlighter Highlighter
}

// SearchIndex is the external ranking oracle.
type SearchIndex interface {
	Search(ctx context.Context, query string, offset, limit int, order string) (*SearchPage, error)
}
