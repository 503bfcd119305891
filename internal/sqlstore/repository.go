// Package sqlstore implements the retrieval engine's Store port over
// database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/openparl/hansard/internal/domain"
	_ "modernc.org/sqlite"
)

// Repository implements domain.Store. It performs no writes.
type Repository struct {
	db *sql.DB
}

// Open connects to the database at path using the pure-Go sqlite driver,
// verifies the connection, and returns a Repository. The caller should call
// Close when done.
func Open(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Repository{db: db}, nil
}

// New wraps an existing connection.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Close closes the underlying connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// baseColumns are always selected by FetchItems, in scan order.
var baseColumns = []string{
	"hansard.epobject_id", "hansard.htype", "hansard.gid", "hansard.hpos",
	"hansard.section_id", "hansard.subsection_id", "hansard.hdate",
	"hansard.htime", "hansard.source_url", "hansard.major", "hansard.minor",
	"hansard.video_status", "hansard.colnum",
}

// predicateColumns is the closed set of columns a caller may filter on,
// mapped to their qualified names.
var predicateColumns = map[string]string{
	"epobject_id":   "hansard.epobject_id",
	"gid":           "hansard.gid",
	"htype":         "hansard.htype",
	"hdate":         "hansard.hdate",
	"htime":         "hansard.htime",
	"hpos":          "hansard.hpos",
	"major":         "hansard.major",
	"minor":         "hansard.minor",
	"section_id":    "hansard.section_id",
	"subsection_id": "hansard.subsection_id",
	"speaker_id":    "hansard.speaker_id",
}

var predicateOps = map[string]bool{
	"=": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"LIKE": true,
}

// orderClauses is the closed set of ORDER BY clauses. Order cannot be bound
// as a parameter, so anything else is rejected.
var orderClauses = map[string]string{
	"hpos":                  "hansard.hpos ASC",
	"hpos ASC":              "hansard.hpos ASC",
	"hpos DESC":             "hansard.hpos DESC",
	"hdate DESC, hpos DESC": "hansard.hdate DESC, hansard.hpos DESC",
}

// FetchItems builds and runs a single parameterized query for q. The body
// join is included only when body text was requested.
func (r *Repository) FetchItems(ctx context.Context, q domain.ItemQuery) ([]domain.ItemRow, error) {
	cols := append([]string(nil), baseColumns...)
	if q.Amount.Speaker {
		cols = append(cols, "hansard.speaker_id")
	}

	join := ""
	if q.Amount.Body {
		cols = append(cols, "epobject.body")
		join = "LEFT OUTER JOIN epobject ON hansard.epobject_id = epobject.epobject_id"
	}

	var (
		where []string
		args  []any
	)
	for _, p := range q.Where {
		col, ok := predicateColumns[p.Column]
		if !ok {
			return nil, fmt.Errorf("disallowed predicate column %q", p.Column)
		}
		if !predicateOps[p.Op] {
			return nil, fmt.Errorf("disallowed predicate operator %q", p.Op)
		}
		where = append(where, fmt.Sprintf("%s %s ?", col, p.Op))
		args = append(args, p.Value)
	}
	if len(where) == 0 {
		return nil, fmt.Errorf("item query needs at least one predicate")
	}

	query := fmt.Sprintf("SELECT %s FROM hansard %s WHERE %s",
		strings.Join(cols, ", "), join, strings.Join(where, " AND "))

	if q.Order != "" {
		clause, ok := orderClauses[q.Order]
		if !ok {
			return nil, fmt.Errorf("disallowed order clause %q", q.Order)
		}
		query += " ORDER BY " + clause
	}
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []domain.ItemRow{}
	for rows.Next() {
		var (
			item    domain.ItemRow
			htime   sql.NullString
			source  sql.NullString
			speaker sql.NullInt64
			body    sql.NullString
		)
		dest := []any{
			&item.EpobjectID, &item.HType, &item.Gid, &item.HPos,
			&item.SectionID, &item.SubsectionID, &item.HDate,
			&htime, &source, &item.Major, &item.Minor,
			&item.VideoStatus, &item.ColNum,
		}
		if q.Amount.Speaker {
			dest = append(dest, &speaker)
		}
		if q.Amount.Body {
			dest = append(dest, &body)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.HTime = htime.String
		item.SourceURL = source.String
		item.SpeakerID = speaker.Int64
		item.Body = body.String
		item.Gid = domain.StripNamespace(item.Gid)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// RedirectTarget looks up one hop of the gid redirect table.
func (r *Repository) RedirectTarget(ctx context.Context, gid string) (string, error) {
	var to string
	err := r.db.QueryRowContext(ctx,
		`SELECT gid_to FROM gidredirect WHERE gid_from = ?`, gid,
	).Scan(&to)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query gid redirect: %w", err)
	}
	return to, nil
}

// GidOf returns the namespace-stripped gid of an epobject.
func (r *Repository) GidOf(ctx context.Context, epobjectID int64) (string, error) {
	var gid string
	err := r.db.QueryRowContext(ctx,
		`SELECT gid FROM hansard WHERE epobject_id = ?`, epobjectID,
	).Scan(&gid)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query gid of %d: %w", epobjectID, err)
	}
	return domain.StripNamespace(gid), nil
}

// Member fetches one member row.
func (r *Repository) Member(ctx context.Context, memberID int64) (*domain.MemberRow, error) {
	var m domain.MemberRow
	err := r.db.QueryRowContext(ctx, `
		SELECT member_id, person_id, title, first_name, last_name,
		       house, constituency, party
		FROM member
		WHERE member_id = ?`, memberID,
	).Scan(&m.MemberID, &m.PersonID, &m.Title, &m.FirstName, &m.LastName,
		&m.House, &m.Constituency, &m.Party)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query member %d: %w", memberID, err)
	}
	return &m, nil
}

// Offices returns the offices active on date for a person.
func (r *Repository) Offices(ctx context.Context, personID int64, date string) ([]domain.OfficeRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT dept, position, source
		FROM moffice
		WHERE person = ? AND from_date <= ? AND to_date >= ?`,
		personID, date, date,
	)
	if err != nil {
		return nil, fmt.Errorf("query offices: %w", err)
	}
	defer rows.Close()

	var offices []domain.OfficeRow
	for rows.Next() {
		var o domain.OfficeRow
		if err := rows.Scan(&o.Dept, &o.Position, &o.Source); err != nil {
			return nil, fmt.Errorf("scan office: %w", err)
		}
		offices = append(offices, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offices: %w", err)
	}
	return offices, nil
}

// VoteCounts queries the registered and anonymous vote tables
// independently, defaulting each count to zero.
func (r *Repository) VoteCounts(ctx context.Context, epobjectID int64) (domain.VoteTally, error) {
	var tally domain.VoteTally

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(vote) FROM uservotes
		WHERE epobject_id = ? AND vote = 1`, epobjectID,
	).Scan(&tally.User.Yes)
	if err != nil {
		return tally, fmt.Errorf("query user yes votes: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(vote) FROM uservotes
		WHERE epobject_id = ? AND vote = 0`, epobjectID,
	).Scan(&tally.User.No)
	if err != nil {
		return tally, fmt.Errorf("query user no votes: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT yes_votes, no_votes FROM anonvotes
		WHERE epobject_id = ?`, epobjectID,
	).Scan(&tally.Anon.Yes, &tally.Anon.No)
	if err != nil && err != sql.ErrNoRows {
		return tally, fmt.Errorf("query anon votes: %w", err)
	}
	return tally, nil
}

// CommentCount counts visible comments directly on one item.
func (r *Repository) CommentCount(ctx context.Context, epobjectID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM comments
		WHERE epobject_id = ? AND visible = 1`, epobjectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("query comment count: %w", err)
	}
	return count, nil
}

// HeadingCommentCount counts visible comments over all rows a heading
// contains.
func (r *Repository) HeadingCommentCount(ctx context.Context, epobjectID int64, sectionOnly bool) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM comments, hansard
		WHERE comments.epobject_id = hansard.epobject_id
		AND hansard.subsection_id = ?
		AND comments.visible = 1`
	args := []any{epobjectID}
	if sectionOnly {
		query += ` AND hansard.section_id = ?`
		args = append(args, epobjectID)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("query heading comment count: %w", err)
	}
	return count, nil
}

// EarliestComment returns the earliest visible comment on an item.
func (r *Repository) EarliestComment(ctx context.Context, epobjectID int64) (*domain.Comment, error) {
	var (
		c          domain.Comment
		first, last string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT c.comment_id, c.user_id, c.body, c.posted,
		       u.firstname, u.lastname
		FROM comments c, users u
		WHERE c.epobject_id = ?
		AND c.user_id = u.user_id
		AND c.visible = 1
		ORDER BY c.posted ASC
		LIMIT 1`, epobjectID,
	).Scan(&c.CommentID, &c.UserID, &c.Body, &c.Posted, &first, &last)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query earliest comment: %w", err)
	}
	c.Username = strings.TrimSpace(first + " " + last)
	return &c, nil
}

// FirstBody returns the body of the first row a heading contains.
func (r *Repository) FirstBody(ctx context.Context, epobjectID int64, sectionOnly bool) (string, error) {
	query := `
		SELECT epobject.body
		FROM hansard, epobject
		WHERE hansard.subsection_id = ?
		AND hansard.epobject_id = epobject.epobject_id`
	args := []any{epobjectID}
	if sectionOnly {
		query += ` AND hansard.section_id = ?`
		args = append(args, epobjectID)
	}
	query += ` ORDER BY hansard.hpos ASC LIMIT 1`

	var body string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&body)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query first body: %w", err)
	}
	return body, nil
}

// SpeechCount counts speech rows contained in a heading.
func (r *Repository) SpeechCount(ctx context.Context, epobjectID int64, sectionOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM hansard WHERE subsection_id = ? AND htype = 12`
	args := []any{epobjectID}
	if sectionOnly {
		query = `SELECT COUNT(*) FROM hansard
			WHERE section_id = ? AND subsection_id = ? AND htype = 12`
		args = []any{epobjectID, epobjectID}
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("query speech count: %w", err)
	}
	return count, nil
}

// AdjacentItem finds the nearest qualifying row before or after a position
// on one sitting day.
func (r *Repository) AdjacentItem(ctx context.Context, q domain.AdjacentQuery) (int64, error) {
	var (
		kind string
		args = []any{q.Date, q.Major}
	)
	switch {
	case q.Headings && q.SubsectionOnly:
		kind = "htype = 11"
	case q.Headings:
		kind = "(htype = 10 OR htype = 11)"
	default:
		kind = "subsection_id = ? AND htype != 10 AND htype != 11"
		args = append(args, q.SubsectionID)
	}

	cmp, dir := "<", "DESC"
	if q.Forward {
		cmp, dir = ">", "ASC"
	}
	query := fmt.Sprintf(`
		SELECT epobject_id FROM hansard
		WHERE hdate = ? AND major = ? AND %s AND hpos %s ?
		ORDER BY hpos %s LIMIT 1`, kind, cmp, dir)
	args = append(args, q.HPos)

	var id int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query adjacent item: %w", err)
	}
	return id, nil
}

// AdjacentDate finds the nearest sitting date strictly beyond date.
func (r *Repository) AdjacentDate(ctx context.Context, major int, date string, forward bool) (string, error) {
	query := `SELECT MAX(hdate) FROM hansard WHERE major = ? AND hdate < ?`
	if forward {
		query = `SELECT MIN(hdate) FROM hansard WHERE major = ? AND hdate > ?`
	}

	var found sql.NullString
	if err := r.db.QueryRowContext(ctx, query, major, date).Scan(&found); err != nil {
		return "", fmt.Errorf("query adjacent date: %w", err)
	}
	if !found.Valid {
		return "", domain.ErrNotFound
	}
	return found.String, nil
}

// AdjacentYear finds the nearest year with sittings strictly beyond year.
func (r *Repository) AdjacentYear(ctx context.Context, major int, year int, forward bool) (int, error) {
	query := `
		SELECT CAST(SUBSTR(hdate, 1, 4) AS INTEGER) FROM hansard
		WHERE major = ? AND CAST(SUBSTR(hdate, 1, 4) AS INTEGER) < ?
		ORDER BY hdate DESC LIMIT 1`
	if forward {
		query = `
		SELECT CAST(SUBSTR(hdate, 1, 4) AS INTEGER) FROM hansard
		WHERE major = ? AND CAST(SUBSTR(hdate, 1, 4) AS INTEGER) > ?
		ORDER BY hdate ASC LIMIT 1`
	}

	var found int
	err := r.db.QueryRowContext(ctx, query, major, year).Scan(&found)
	if err == sql.ErrNoRows {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query adjacent year: %w", err)
	}
	return found, nil
}

// MostRecentDate returns the latest sitting date for a major.
func (r *Repository) MostRecentDate(ctx context.Context, major int) (string, error) {
	var found sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(hdate) FROM hansard WHERE major = ?`, major,
	).Scan(&found)
	if err != nil {
		return "", fmt.Errorf("query most recent date: %w", err)
	}
	if !found.Valid {
		return "", domain.ErrNotFound
	}
	return found.String, nil
}

// RecentDates returns distinct sitting dates, newest first.
func (r *Repository) RecentDates(ctx context.Context, major int, limit int) ([]string, error) {
	query := `SELECT DISTINCT hdate FROM hansard WHERE major = ? ORDER BY hdate DESC`
	args := []any{major}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.queryDates(ctx, query, args...)
}

// SittingDates returns distinct sitting dates in [first, final], oldest
// first.
func (r *Repository) SittingDates(ctx context.Context, major int, first, final string) ([]string, error) {
	return r.queryDates(ctx, `
		SELECT DISTINCT hdate FROM hansard
		WHERE major = ? AND hdate >= ? AND hdate <= ?
		ORDER BY hdate ASC`, major, first, final)
}

func (r *Repository) queryDates(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dates: %w", err)
	}
	return dates, nil
}

// CountItems returns the number of rows for a major.
func (r *Repository) CountItems(ctx context.Context, major int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hansard WHERE major = ?`, major,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("query item count: %w", err)
	}
	return count, nil
}

// FutureEvent fetches one non-deleted future-business entry.
func (r *Repository) FutureEvent(ctx context.Context, id int64) (*domain.FutureEvent, error) {
	var (
		ev        domain.FutureEvent
		title     sql.NullString
		witnesses sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, event_date, pos, chamber, title, witnesses
		FROM future
		WHERE id = ? AND deleted = 0`, id,
	).Scan(&ev.ID, &ev.EventDate, &ev.Pos, &ev.Chamber, &title, &witnesses)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query future event %d: %w", id, err)
	}
	ev.Title = title.String
	ev.Witnesses = witnesses.String
	return &ev, nil
}

// Mentions returns cross-references for a Scottish question code.
func (r *Repository) Mentions(ctx context.Context, code string) ([]domain.Mention, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT gid, type, date, url, mentioned_gid
		FROM mentions
		WHERE gid = ?
		ORDER BY date, type`, "uk.org.publicwhip/spq/"+code,
	)
	if err != nil {
		return nil, fmt.Errorf("query mentions: %w", err)
	}
	defer rows.Close()

	var mentions []domain.Mention
	for rows.Next() {
		var (
			m   domain.Mention
			url sql.NullString
			mg  sql.NullString
		)
		if err := rows.Scan(&m.Gid, &m.Type, &m.Date, &url, &mg); err != nil {
			return nil, fmt.Errorf("scan mention: %w", err)
		}
		m.URL = url.String
		m.MentionedGid = mg.String
		mentions = append(mentions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mentions: %w", err)
	}
	return mentions, nil
}

// Bill returns a bill's title and session.
func (r *Repository) Bill(ctx context.Context, id int) (string, string, error) {
	var title, session string
	err := r.db.QueryRowContext(ctx,
		`SELECT title, session FROM bills WHERE id = ?`, id,
	).Scan(&title, &session)
	if err == sql.ErrNoRows {
		return "", "", domain.ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("query bill %d: %w", id, err)
	}
	return title, session, nil
}

// MemberSpeeches returns the most recent contributions of a set of members,
// with both parent heading bodies joined in so breadcrumbs need no further
// queries.
func (r *Repository) MemberSpeeches(ctx context.Context, memberIDs []int64, major int, limit int) ([]domain.MemberSpeechRow, error) {
	if len(memberIDs) == 0 {
		return []domain.MemberSpeechRow{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(memberIDs)), ", ")
	args := make([]any, 0, len(memberIDs)+2)
	for _, id := range memberIDs {
		args = append(args, id)
	}

	majorWhere := ""
	if major != 0 {
		majorWhere = "AND hansard.major = ?"
		args = append(args, major)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT hansard.epobject_id, hansard.htype, hansard.gid,
		       hansard.hpos, hansard.section_id, hansard.subsection_id,
		       hansard.hdate, hansard.htime, hansard.major, hansard.minor,
		       hansard.speaker_id, epobject.body,
		       epobject_section.body, epobject_subsection.body,
		       hansard_subsection.gid
		FROM hansard
		JOIN epobject
		    ON hansard.epobject_id = epobject.epobject_id
		JOIN epobject AS epobject_section
		    ON hansard.section_id = epobject_section.epobject_id
		JOIN epobject AS epobject_subsection
		    ON hansard.subsection_id = epobject_subsection.epobject_id
		JOIN hansard AS hansard_subsection
		    ON hansard.subsection_id = hansard_subsection.epobject_id
		WHERE hansard.speaker_id IN (%s) %s
		ORDER BY hansard.hdate DESC, hansard.hpos DESC
		LIMIT ?`, placeholders, majorWhere)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query member speeches: %w", err)
	}
	defer rows.Close()

	speeches := []domain.MemberSpeechRow{}
	for rows.Next() {
		var (
			s     domain.MemberSpeechRow
			htime sql.NullString
		)
		if err := rows.Scan(
			&s.EpobjectID, &s.HType, &s.Gid, &s.HPos, &s.SectionID,
			&s.SubsectionID, &s.HDate, &htime, &s.Major, &s.Minor,
			&s.SpeakerID, &s.Body, &s.SectionBody, &s.SubsectionBody,
			&s.SubsectionGid,
		); err != nil {
			return nil, fmt.Errorf("scan member speech: %w", err)
		}
		s.HTime = htime.String
		s.Gid = domain.StripNamespace(s.Gid)
		s.SubsectionGid = domain.StripNamespace(s.SubsectionGid)
		speeches = append(speeches, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member speeches: %w", err)
	}
	return speeches, nil
}
