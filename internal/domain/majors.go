package domain

// MajorType splits the corpus into debate-style categories (spoken
// proceedings with free-form sections) and "other" categories (written
// answers and statements, where the subsection is the addressable unit).
type MajorType string

const (
	MajorDebate MajorType = "debate"
	MajorOther  MajorType = "other"
)

// Major describes one category of the transcript corpus. The mapping is
// injected into the engine rather than read from a global table so that
// callers can serve a subset or test against a synthetic corpus.
type Major struct {
	ID       int
	Title    string
	Singular string
	Plural   string
	Type     MajorType
	Location string

	// GidPrefix is the corpus namespace prepended to raw identifiers
	// before any database lookup.
	GidPrefix string

	// ListPage and ItemPage are the URL path roots for the full list view
	// and the single-item view. YearPage serves the calendar for a year.
	ListPage string
	ItemPage string
	YearPage string
}

// SubsectionOnly reports whether sibling navigation between headings should
// consider subsections alone. True for UK written categories, where section
// headings are department names rather than debate topics.
func (m Major) SubsectionOnly() bool {
	return m.Type == MajorOther && m.Location == "UK"
}

// Well-known major IDs.
const (
	MajorCommonsDebates  = 1
	MajorWestminsterHall = 2
	MajorWrans           = 3
	MajorWMS             = 4
	MajorNIAssembly      = 5
	MajorPBC             = 6
	MajorSPDebates       = 7
	MajorSPWrans         = 8
	MajorLordsDebates    = 101
)

// DefaultMajors returns the standard UK corpus configuration.
func DefaultMajors() map[int]Major {
	majors := []Major{
		{
			ID: MajorCommonsDebates, Title: "Debates", Singular: "debate", Plural: "debates",
			Type: MajorDebate, Location: "UK",
			GidPrefix: "uk.org.publicwhip/debate/",
			ListPage:  "/debates/", ItemPage: "/debate/", YearPage: "/debates/",
		},
		{
			ID: MajorWestminsterHall, Title: "Westminster Hall debates", Singular: "Westminster Hall debate", Plural: "Westminster Hall debates",
			Type: MajorOther, Location: "UK",
			GidPrefix: "uk.org.publicwhip/westminhall/",
			ListPage:  "/whall/", ItemPage: "/whall/", YearPage: "/whall/",
		},
		{
			ID: MajorWrans, Title: "Written Answers", Singular: "Written Answer", Plural: "Written Answers",
			Type: MajorOther, Location: "UK",
			GidPrefix: "uk.org.publicwhip/wrans/",
			ListPage:  "/wrans/", ItemPage: "/wrans/", YearPage: "/wrans/",
		},
		{
			ID: MajorWMS, Title: "Written Ministerial Statements", Singular: "Written Ministerial Statement", Plural: "Written Ministerial Statements",
			Type: MajorOther, Location: "UK",
			GidPrefix: "uk.org.publicwhip/wms/",
			ListPage:  "/wms/", ItemPage: "/wms/", YearPage: "/wms/",
		},
		{
			ID: MajorNIAssembly, Title: "Northern Ireland Assembly debates", Singular: "Northern Ireland Assembly debate", Plural: "Northern Ireland Assembly debates",
			Type: MajorDebate, Location: "NI",
			GidPrefix: "uk.org.publicwhip/ni/",
			ListPage:  "/ni/", ItemPage: "/ni/", YearPage: "/ni/",
		},
		{
			ID: MajorPBC, Title: "Public Bill Committees", Singular: "Public Bill Committee debate", Plural: "Public Bill Committee debates",
			Type: MajorDebate, Location: "UK",
			GidPrefix: "uk.org.publicwhip/standing/",
			ListPage:  "/pbc/", ItemPage: "/pbc/", YearPage: "/pbc/",
		},
		{
			ID: MajorSPDebates, Title: "Scottish Parliament debates", Singular: "Scottish Parliament debate", Plural: "Scottish Parliament debates",
			Type: MajorDebate, Location: "Scotland",
			GidPrefix: "uk.org.publicwhip/spor/",
			ListPage:  "/sp/", ItemPage: "/sp/", YearPage: "/sp/",
		},
		{
			ID: MajorSPWrans, Title: "Scottish Parliament written answers", Singular: "Scottish Parliament written answer", Plural: "Scottish Parliament written answers",
			Type: MajorOther, Location: "Scotland",
			GidPrefix: "uk.org.publicwhip/spwa/",
			ListPage:  "/spwrans/", ItemPage: "/spwrans/", YearPage: "/spwrans/",
		},
		{
			ID: MajorLordsDebates, Title: "Lords debates", Singular: "Lords debate", Plural: "Lords debates",
			Type: MajorDebate, Location: "UK",
			GidPrefix: "uk.org.publicwhip/lords/",
			ListPage:  "/lords/", ItemPage: "/lords/", YearPage: "/lords/",
		},
	}

	byID := make(map[int]Major, len(majors))
	for _, m := range majors {
		byID[m.ID] = m
	}
	return byID
}
