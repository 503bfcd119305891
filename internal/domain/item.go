package domain

import "strings"

// StripNamespace drops the corpus namespace from a stored gid, leaving the
// date-scoped identifier used in URLs ("uk.org.publicwhip/debate/2003-10-30.1.2"
// becomes "2003-10-30.1.2"). Gids without a namespace pass through unchanged.
func StripNamespace(gid string) string {
	if i := strings.LastIndex(gid, "/"); i >= 0 {
		return gid[i+1:]
	}
	return gid
}

// HType classifies a transcript row. Sections and subsections are heading
// rows interleaved, in hpos order, with the speeches they contain.
type HType int

const (
	HTypeSection    HType = 10
	HTypeSubsection HType = 11
	HTypeSpeech     HType = 12
	HTypeProcedural HType = 13
)

// IsHeading reports whether the row is a section or subsection heading.
func (t HType) IsHeading() bool {
	return t == HTypeSection || t == HTypeSubsection
}

// ItemRow is one row of the transcript corpus as stored.
type ItemRow struct {
	// EpobjectID is the primary key of the content object.
	EpobjectID int64

	// HType is the row kind (section, subsection, speech, procedural).
	HType HType

	// Gid is the stable external identifier with the corpus namespace
	// prefix already stripped (e.g. "2003-10-30.422.4").
	Gid string

	// HPos totally orders rows within one sitting date and major.
	HPos int

	// SectionID and SubsectionID point at the containing heading rows.
	// A heading row's own field equals its own EpobjectID.
	SectionID    int64
	SubsectionID int64

	// HDate is the sitting date, YYYY-MM-DD. HTime may be empty.
	HDate string
	HTime string

	SourceURL   string
	Major       int
	Minor       int
	VideoStatus int
	ColNum      int

	// SpeakerID is zero when nobody is speaking (headings, procedural).
	SpeakerID int64

	// Body is populated only when the query requested body text.
	Body string
}

// Item is an ItemRow decorated with whichever extras were requested.
// Optional extras are nil when not requested or not applicable.
type Item struct {
	ItemRow

	Speaker  *Speaker
	Votes    *VoteTally
	Comments *CommentSummary

	// Excerpt is the body of the first contained row; headings only.
	Excerpt string

	// ContentCount is the number of contained speech rows; headings in
	// debate-type majors only.
	ContentCount *int

	// Mentions are cross-references attached to Scottish question and
	// committee rows.
	Mentions []Mention

	// ListURL is the item's place in the full list view; CommentsURL is
	// its own page.
	ListURL     string
	CommentsURL string
}

// VoteTally holds registered-user and anonymous agree/disagree counts for a
// speech. Absent rows count as zero; a tally always has all four values.
type VoteTally struct {
	User YesNo
	Anon YesNo
}

// YesNo is a pair of vote counts.
type YesNo struct {
	Yes int
	No  int
}

// CommentSummary aggregates the visible comments on an item. Heading rows
// aggregate counts over their contained rows and never carry Earliest.
type CommentSummary struct {
	Total    int
	Earliest *Comment
}

// Comment is a single visible user comment.
type Comment struct {
	CommentID int64
	UserID    int64
	Body      string
	Posted    string
	Username  string
}

// Mention is a cross-reference record keyed by a Scottish parliament
// question or committee-session code.
type Mention struct {
	Gid          string
	Type         int
	Date         string
	URL          string
	MentionedGid string
}
