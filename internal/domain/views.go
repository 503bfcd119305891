package domain

// Redirect signals that the canonical location of the requested content
// differs from the requested identifier. Callers must answer with an
// HTTP-level redirect so canonical URLs stay stable and shareable; it is a
// control signal, not an error.
type Redirect struct {
	// Gid is the canonical identifier, without the corpus namespace.
	Gid string
}

// LinkTarget is one navigation hint (next, previous, up).
type LinkTarget struct {
	// Body is the link text ("Next debate", "Previous day").
	Body string

	// Title names the target (heading text, speaker name, date).
	Title string

	URL string
}

// NextPrev is the set of navigation hints for a view. Nil members mean no
// target exists in that direction.
type NextPrev struct {
	Next *LinkTarget
	Prev *LinkTarget
	Up   *LinkTarget
}

// DateView is a whole sitting day: section headings each immediately
// followed by their subsection headings, in hpos order.
type DateView struct {
	Major    int
	Date     string
	Rows     []Item
	NextPrev NextPrev
}

// ItemView is the by-identifier view. When Redirect is set, all other
// fields are empty and the caller must redirect.
type ItemView struct {
	Redirect *Redirect

	// Item is the requested row. Section and Subsection are its heading
	// rows; Subsection is nil when the item has no distinct subsection.
	Item       Item
	Section    Item
	Subsection *Item

	// Rows is the ordered display list: section heading, subsection
	// heading (when distinct), then sibling rows per the item's kind.
	Rows []Item

	// SubRows holds a section's subsection headings when the section has
	// no directly-contained rows of its own.
	SubRows []Item

	NextPrev NextPrev

	// Robots carries a per-page robots directive ("noindex") when the
	// view contains a suppressed row.
	Robots string
}

// Breadcrumb is a search result's contextual parent description.
type Breadcrumb struct {
	Body    string
	ListURL string
}

// SearchResult is one mapped hit. Calendar hits carry no ItemRow fields
// beyond the date; transcript hits are fully enriched.
type SearchResult struct {
	Item

	Relevance     float64
	CollapseGroup int
	Parent        Breadcrumb

	// Extract is the highlighted excerpt centred on the first query term.
	Extract string

	// Calendar marks a future-business hit; Chamber is only set for those.
	Calendar bool
	Chamber  string
}

// SearchView is a page of mapped search results in index rank order.
type SearchView struct {
	Query        string
	Description  string
	Spelling     string
	Page         int
	PerPage      int
	FirstResult  int
	TotalResults int
	Rows         []SearchResult
}

// DateLink is one entry of the recent-dates view.
type DateLink struct {
	Date    string
	ListURL string
}

// RecentView lists recent sitting dates, newest first.
type RecentView struct {
	Major int
	Rows  []DateLink
}

// CalendarView is a year/month grid of sitting days. Years maps year to
// month (1-12) to the days with sittings; months in range without sittings
// are present and empty.
type CalendarView struct {
	Major    int
	OnDay    string
	Years    map[int]map[int][]int
	NextPrev NextPrev
}

// MemberItem is one row of a member's recent contributions.
type MemberItem struct {
	ItemRow
	Parent  Breadcrumb
	ListURL string
}

// MemberView lists a member's recent contributions, newest first.
type MemberView struct {
	Rows []MemberItem
}

// MostRecentDay describes the latest sitting day of a major.
type MostRecentDay struct {
	Date    string
	ListURL string
}
