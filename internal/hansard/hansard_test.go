package hansard

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"testing"

	"github.com/openparl/hansard/internal/domain"
	"github.com/openparl/hansard/internal/sqlstore"
)

// newTestService wires a Service over an in-memory database, seeded with a
// small two-chamber corpus, and a controllable fake index.
func newTestService(t *testing.T) (*Service, *sql.DB, *fakeIndex) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := sqlstore.InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	index := &fakeIndex{}
	svc := NewService(sqlstore.New(db), index, domain.DefaultMajors(),
		slog.New(slog.DiscardHandler))
	return svc, db, index
}

func newTestServiceWithStore(t *testing.T, store domain.Store) *Service {
	t.Helper()
	return NewService(store, &fakeIndex{}, domain.DefaultMajors(),
		slog.New(slog.DiscardHandler))
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

type seedRow struct {
	ep      int64
	gid     string
	htype   int
	major   int
	minor   int
	hpos    int
	sec     int64
	sub     int64
	date    string
	speaker int64
	body    string
}

func seed(t *testing.T, db *sql.DB, rows ...seedRow) {
	t.Helper()
	for _, r := range rows {
		mustExec(t, db, `
			INSERT INTO hansard (epobject_id, gid, htype, major, minor,
				hpos, section_id, subsection_id, hdate, speaker_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ep, r.gid, r.htype, r.major, r.minor, r.hpos, r.sec, r.sub,
			r.date, r.speaker)
		mustExec(t, db,
			`INSERT INTO epobject (epobject_id, body) VALUES (?, ?)`,
			r.ep, r.body)
	}
}

// seedDebateDay loads one Commons sitting: a Health section holding a
// Waiting Times subsection with two speeches, then an empty Education
// section.
func seedDebateDay(t *testing.T, db *sql.DB) {
	t.Helper()
	seed(t, db,
		seedRow{ep: 1, gid: "uk.org.publicwhip/debate/2015-03-02a.1.0", htype: 10, major: 1, hpos: 1, sec: 1, sub: 1, date: "2015-03-02", body: "Health"},
		seedRow{ep: 2, gid: "uk.org.publicwhip/debate/2015-03-02a.1.1", htype: 11, major: 1, hpos: 2, sec: 1, sub: 2, date: "2015-03-02", body: "Waiting Times"},
		seedRow{ep: 3, gid: "uk.org.publicwhip/debate/2015-03-02a.1.2", htype: 12, major: 1, hpos: 3, sec: 1, sub: 2, date: "2015-03-02", speaker: 77, body: "<p>I beg to move that waiting times be debated.</p>"},
		seedRow{ep: 4, gid: "uk.org.publicwhip/debate/2015-03-02a.1.3", htype: 12, major: 1, hpos: 4, sec: 1, sub: 2, date: "2015-03-02", speaker: 78, body: "<p>I second that.</p>"},
		seedRow{ep: 5, gid: "uk.org.publicwhip/debate/2015-03-02a.2.0", htype: 10, major: 1, hpos: 5, sec: 5, sub: 5, date: "2015-03-02", body: "Education"},
	)
	mustExec(t, db, `
		INSERT INTO member (member_id, person_id, title, first_name, last_name, house, constituency, party)
		VALUES (77, 770, '', 'Alice', 'Smith', 1, 'Testham', 'Lab')`)
	mustExec(t, db, `
		INSERT INTO member (member_id, person_id, title, first_name, last_name, house, constituency, party)
		VALUES (78, 780, '', 'Bob', 'Jones', 1, 'Examplewich', 'Con')`)
}

// seedWransDay loads one written-answers day: a department section whose
// only direct row is the question intro, and a question subsection.
func seedWransDay(t *testing.T, db *sql.DB) {
	t.Helper()
	seed(t, db,
		seedRow{ep: 10, gid: "uk.org.publicwhip/wrans/2015-03-02a.10.0", htype: 10, major: 3, hpos: 1, sec: 10, sub: 10, date: "2015-03-02", body: "Department of Health"},
		seedRow{ep: 11, gid: "uk.org.publicwhip/wrans/2015-03-02a.10.1", htype: 11, major: 3, hpos: 2, sec: 10, sub: 11, date: "2015-03-02", body: "Hospital Beds"},
		seedRow{ep: 12, gid: "uk.org.publicwhip/wrans/2015-03-02a.10.2", htype: 12, major: 3, hpos: 3, sec: 10, sub: 11, date: "2015-03-02", speaker: 77, body: "<p>To ask how many hospital beds there are.</p>"},
		seedRow{ep: 13, gid: "uk.org.publicwhip/wrans/2015-03-02a.10.3", htype: 12, major: 3, hpos: 4, sec: 10, sub: 11, date: "2015-03-02", speaker: 78, body: "<p>There are many beds.</p>"},
	)
}

// fakeIndex is a scripted SearchIndex that records what it was asked.
type fakeIndex struct {
	page *domain.SearchPage
	err  error

	gotQuery  string
	gotOffset int
	gotLimit  int
	gotOrder  string
}

func (f *fakeIndex) Search(_ context.Context, query string, offset, limit int, order string) (*domain.SearchPage, error) {
	f.gotQuery, f.gotOffset, f.gotLimit, f.gotOrder = query, offset, limit, order
	if f.err != nil {
		return nil, f.err
	}
	if f.page == nil {
		return &domain.SearchPage{Hits: []domain.SearchHit{}}, nil
	}
	return f.page, nil
}

// termHighlighter marks a single term, the way test fixtures need it.
type termHighlighter struct {
	term string
}

func (h termHighlighter) Highlight(text string) string {
	return strings.ReplaceAll(text, h.term, "<em>"+h.term+"</em>")
}

func (h termHighlighter) FirstMatch(text string) int {
	if i := strings.Index(strings.ToLower(text), strings.ToLower(h.term)); i >= 0 {
		return i
	}
	return 0
}
