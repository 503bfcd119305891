package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/openparl/hansard/internal/domain"
)

func newTestRepo(t *testing.T) (*Repository, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return New(db), db
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func seedItem(t *testing.T, db *sql.DB, id int64, gid string, htype, major, hpos int, sectionID, subsectionID int64, date, body string) {
	t.Helper()
	mustExec(t, db, `
		INSERT INTO hansard (epobject_id, gid, htype, major, hpos,
			section_id, subsection_id, hdate, speaker_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		id, gid, htype, major, hpos, sectionID, subsectionID, date)
	mustExec(t, db, `INSERT INTO epobject (epobject_id, body) VALUES (?, ?)`, id, body)
}

func TestFetchItemsRejectsDisallowedInput(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	cases := []struct {
		name string
		q    domain.ItemQuery
	}{
		{"column", domain.ItemQuery{Where: []domain.Predicate{{Column: "body; DROP TABLE hansard", Op: "=", Value: 1}}}},
		{"operator", domain.ItemQuery{Where: []domain.Predicate{{Column: "major", Op: "= 1 OR 1", Value: 1}}}},
		{"order", domain.ItemQuery{Where: []domain.Predicate{{Column: "major", Op: "=", Value: 1}}, Order: "hpos; DELETE FROM hansard"}},
		{"empty", domain.ItemQuery{}},
	}
	for _, tc := range cases {
		if _, err := repo.FetchItems(ctx, tc.q); err == nil {
			t.Errorf("%s: expected error, got none", tc.name)
		}
	}
}

func TestFetchItemsBodyAndNamespace(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	seedItem(t, db, 1, "uk.org.publicwhip/debate/2015-03-02a.1.0", 10, 1, 1, 1, 1, "2015-03-02", "Topical Questions")

	where := []domain.Predicate{{Column: "major", Op: "=", Value: 1}}

	rows, err := repo.FetchItems(ctx, domain.ItemQuery{Where: where})
	if err != nil {
		t.Fatalf("fetch without body: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Body != "" {
		t.Errorf("body fetched without being requested: %q", rows[0].Body)
	}
	if rows[0].Gid != "2015-03-02a.1.0" {
		t.Errorf("gid = %q, want namespace stripped", rows[0].Gid)
	}

	rows, err = repo.FetchItems(ctx, domain.ItemQuery{
		Amount: domain.ItemAmount{Body: true},
		Where:  where,
	})
	if err != nil {
		t.Fatalf("fetch with body: %v", err)
	}
	if rows[0].Body != "Topical Questions" {
		t.Errorf("body = %q, want %q", rows[0].Body, "Topical Questions")
	}
}

func TestFetchItemsEmptyResultIsNotNil(t *testing.T) {
	repo, _ := newTestRepo(t)
	rows, err := repo.FetchItems(context.Background(), domain.ItemQuery{
		Where: []domain.Predicate{{Column: "major", Op: "=", Value: 99}},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if rows == nil {
		t.Fatal("got nil slice, want empty")
	}
	if len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
}

func TestFetchItemsOrderAndLimit(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	seedItem(t, db, 1, "uk.org.publicwhip/debate/d.1", 12, 1, 3, 0, 0, "2015-03-02", "")
	seedItem(t, db, 2, "uk.org.publicwhip/debate/d.2", 12, 1, 1, 0, 0, "2015-03-02", "")
	seedItem(t, db, 3, "uk.org.publicwhip/debate/d.3", 12, 1, 2, 0, 0, "2015-03-02", "")

	rows, err := repo.FetchItems(ctx, domain.ItemQuery{
		Where: []domain.Predicate{{Column: "major", Op: "=", Value: 1}},
		Order: "hpos",
		Limit: 2,
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].HPos != 1 || rows[1].HPos != 2 {
		t.Errorf("rows out of order: hpos %d, %d", rows[0].HPos, rows[1].HPos)
	}
}

func TestRedirectTarget(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	mustExec(t, db, `INSERT INTO gidredirect (gid_from, gid_to) VALUES (?, ?)`,
		"uk.org.publicwhip/debate/old", "uk.org.publicwhip/debate/new")

	to, err := repo.RedirectTarget(ctx, "uk.org.publicwhip/debate/old")
	if err != nil {
		t.Fatalf("redirect target: %v", err)
	}
	if to != "uk.org.publicwhip/debate/new" {
		t.Errorf("target = %q", to)
	}

	if _, err := repo.RedirectTarget(ctx, "uk.org.publicwhip/debate/none"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing redirect: err = %v, want ErrNotFound", err)
	}
}

func TestVoteCountsDefaultToZero(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	tally, err := repo.VoteCounts(ctx, 42)
	if err != nil {
		t.Fatalf("vote counts: %v", err)
	}
	if tally != (domain.VoteTally{}) {
		t.Errorf("tally = %+v, want all zero", tally)
	}

	mustExec(t, db, `INSERT INTO uservotes (user_id, epobject_id, vote) VALUES (1, 42, 1)`)
	mustExec(t, db, `INSERT INTO uservotes (user_id, epobject_id, vote) VALUES (2, 42, 0)`)
	mustExec(t, db, `INSERT INTO anonvotes (epobject_id, yes_votes, no_votes) VALUES (42, 5, 3)`)

	tally, err = repo.VoteCounts(ctx, 42)
	if err != nil {
		t.Fatalf("vote counts: %v", err)
	}
	want := domain.VoteTally{User: domain.YesNo{Yes: 1, No: 1}, Anon: domain.YesNo{Yes: 5, No: 3}}
	if tally != want {
		t.Errorf("tally = %+v, want %+v", tally, want)
	}
}

func TestHeadingCommentCountSectionOnly(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	// Section 1 directly contains speech 2; subsection 3 contains speech 4.
	seedItem(t, db, 1, "g/s", 10, 1, 1, 1, 1, "2015-03-02", "")
	seedItem(t, db, 2, "g/sp1", 12, 1, 2, 1, 1, "2015-03-02", "")
	seedItem(t, db, 3, "g/ss", 11, 1, 3, 1, 3, "2015-03-02", "")
	seedItem(t, db, 4, "g/sp2", 12, 1, 4, 1, 3, "2015-03-02", "")
	mustExec(t, db, `INSERT INTO comments (user_id, epobject_id, visible) VALUES (1, 2, 1)`)
	mustExec(t, db, `INSERT INTO comments (user_id, epobject_id, visible) VALUES (1, 4, 1)`)
	mustExec(t, db, `INSERT INTO comments (user_id, epobject_id, visible) VALUES (1, 2, 0)`)

	count, err := repo.HeadingCommentCount(ctx, 1, true)
	if err != nil {
		t.Fatalf("heading comment count: %v", err)
	}
	if count != 1 {
		t.Errorf("section-only count = %d, want 1", count)
	}

	count, err = repo.HeadingCommentCount(ctx, 3, false)
	if err != nil {
		t.Fatalf("heading comment count: %v", err)
	}
	if count != 1 {
		t.Errorf("subsection count = %d, want 1", count)
	}
}

func TestEarliestComment(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	mustExec(t, db, `INSERT INTO users (user_id, firstname, lastname) VALUES (7, 'Ada', 'Lovelace')`)
	mustExec(t, db, `INSERT INTO comments (user_id, epobject_id, body, posted, visible)
		VALUES (7, 9, 'second', '2015-02-02 10:00:00', 1)`)
	mustExec(t, db, `INSERT INTO comments (user_id, epobject_id, body, posted, visible)
		VALUES (7, 9, 'first', '2015-01-01 10:00:00', 1)`)

	c, err := repo.EarliestComment(ctx, 9)
	if err != nil {
		t.Fatalf("earliest comment: %v", err)
	}
	if c == nil || c.Body != "first" {
		t.Fatalf("comment = %+v, want body 'first'", c)
	}
	if c.Username != "Ada Lovelace" {
		t.Errorf("username = %q", c.Username)
	}

	c, err = repo.EarliestComment(ctx, 10)
	if err != nil {
		t.Fatalf("earliest comment: %v", err)
	}
	if c != nil {
		t.Errorf("comment = %+v, want nil", c)
	}
}

func TestAdjacentItem(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	seedItem(t, db, 1, "g/s1", 10, 1, 1, 1, 1, "2015-03-02", "")
	seedItem(t, db, 2, "g/ss1", 11, 1, 2, 1, 2, "2015-03-02", "")
	seedItem(t, db, 3, "g/sp1", 12, 1, 3, 1, 2, "2015-03-02", "")
	seedItem(t, db, 4, "g/sp2", 12, 1, 4, 1, 2, "2015-03-02", "")
	seedItem(t, db, 5, "g/s2", 10, 1, 5, 5, 5, "2015-03-02", "")

	base := domain.AdjacentQuery{Major: 1, Date: "2015-03-02"}

	q := base
	q.HPos, q.Forward, q.Headings = 2, true, true
	id, err := repo.AdjacentItem(ctx, q)
	if err != nil {
		t.Fatalf("next heading: %v", err)
	}
	if id != 5 {
		t.Errorf("next heading = %d, want 5", id)
	}

	q = base
	q.HPos, q.Forward, q.Headings, q.SubsectionOnly = 1, true, true, true
	id, err = repo.AdjacentItem(ctx, q)
	if err != nil {
		t.Fatalf("next subsection: %v", err)
	}
	if id != 2 {
		t.Errorf("next subsection = %d, want 2", id)
	}

	q = base
	q.HPos, q.SubsectionID = 4, 2
	id, err = repo.AdjacentItem(ctx, q)
	if err != nil {
		t.Fatalf("previous speech: %v", err)
	}
	if id != 3 {
		t.Errorf("previous speech = %d, want 3", id)
	}

	q = base
	q.HPos, q.Forward, q.SubsectionID = 4, true, 2
	if _, err := repo.AdjacentItem(ctx, q); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("beyond last speech: err = %v, want ErrNotFound", err)
	}
}

func TestDateNavigation(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	seedItem(t, db, 1, "g/1", 10, 1, 1, 1, 1, "2014-06-01", "")
	seedItem(t, db, 2, "g/2", 10, 1, 1, 2, 2, "2015-03-02", "")
	seedItem(t, db, 3, "g/3", 10, 1, 2, 3, 3, "2015-03-04", "")

	next, err := repo.AdjacentDate(ctx, 1, "2015-03-02", true)
	if err != nil {
		t.Fatalf("next date: %v", err)
	}
	if next != "2015-03-04" {
		t.Errorf("next date = %q", next)
	}

	prev, err := repo.AdjacentDate(ctx, 1, "2015-03-02", false)
	if err != nil {
		t.Fatalf("prev date: %v", err)
	}
	if prev != "2014-06-01" {
		t.Errorf("prev date = %q", prev)
	}

	if _, err := repo.AdjacentDate(ctx, 1, "2015-03-04", true); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("beyond last date: err = %v, want ErrNotFound", err)
	}

	year, err := repo.AdjacentYear(ctx, 1, 2015, false)
	if err != nil {
		t.Fatalf("prev year: %v", err)
	}
	if year != 2014 {
		t.Errorf("prev year = %d", year)
	}

	latest, err := repo.MostRecentDate(ctx, 1)
	if err != nil {
		t.Fatalf("most recent date: %v", err)
	}
	if latest != "2015-03-04" {
		t.Errorf("most recent date = %q", latest)
	}

	if _, err := repo.MostRecentDate(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("empty major: err = %v, want ErrNotFound", err)
	}

	dates, err := repo.SittingDates(ctx, 1, "2015-01-01", "2015-12-31")
	if err != nil {
		t.Fatalf("sitting dates: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2015-03-02" {
		t.Errorf("sitting dates = %v", dates)
	}
}

func TestMemberSpeeches(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	seedItem(t, db, 1, "uk.org.publicwhip/debate/2015-03-02a.1.0", 10, 1, 1, 1, 1, "2015-03-02", "Health")
	seedItem(t, db, 2, "uk.org.publicwhip/debate/2015-03-02a.1.1", 11, 1, 2, 1, 2, "2015-03-02", "Waiting Times")
	mustExec(t, db, `
		INSERT INTO hansard (epobject_id, gid, htype, major, hpos,
			section_id, subsection_id, hdate, speaker_id)
		VALUES (3, 'uk.org.publicwhip/debate/2015-03-02a.1.2', 12, 1, 3, 1, 2, '2015-03-02', 77)`)
	mustExec(t, db, `INSERT INTO epobject (epobject_id, body) VALUES (3, 'I beg to move.')`)

	speeches, err := repo.MemberSpeeches(ctx, []int64{77, 78}, 0, 10)
	if err != nil {
		t.Fatalf("member speeches: %v", err)
	}
	if len(speeches) != 1 {
		t.Fatalf("got %d speeches, want 1", len(speeches))
	}
	s := speeches[0]
	if s.Body != "I beg to move." || s.SectionBody != "Health" || s.SubsectionBody != "Waiting Times" {
		t.Errorf("speech bodies = %+v", s)
	}
	if s.SubsectionGid != "2015-03-02a.1.1" {
		t.Errorf("subsection gid = %q", s.SubsectionGid)
	}

	speeches, err = repo.MemberSpeeches(ctx, []int64{77}, 2, 10)
	if err != nil {
		t.Fatalf("member speeches: %v", err)
	}
	if len(speeches) != 0 {
		t.Errorf("wrong major: got %d speeches, want 0", len(speeches))
	}
}

func TestMentionsAndBill(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	mustExec(t, db, `INSERT INTO mentions (gid, type, date, url, mentioned_gid)
		VALUES ('uk.org.publicwhip/spq/S4W-01234', 1, '2015-03-02', '', 'uk.org.publicwhip/spor/x')`)

	mentions, err := repo.Mentions(ctx, "S4W-01234")
	if err != nil {
		t.Fatalf("mentions: %v", err)
	}
	if len(mentions) != 1 || mentions[0].Type != 1 {
		t.Errorf("mentions = %+v", mentions)
	}

	mustExec(t, db, `INSERT INTO bills (id, title, session) VALUES (12, 'Finance Bill', '2014-15')`)
	title, session, err := repo.Bill(ctx, 12)
	if err != nil {
		t.Fatalf("bill: %v", err)
	}
	if title != "Finance Bill" || session != "2014-15" {
		t.Errorf("bill = %q %q", title, session)
	}
	if _, _, err := repo.Bill(ctx, 13); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing bill: err = %v, want ErrNotFound", err)
	}
}

func TestFutureEventSkipsDeleted(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	mustExec(t, db, `INSERT INTO future (id, event_date, pos, chamber, title, deleted)
		VALUES (5, '2026-09-01', 1, 'Commons: Main Chamber', 'Estimates Day', 0)`)
	mustExec(t, db, `INSERT INTO future (id, event_date, pos, chamber, title, deleted)
		VALUES (6, '2026-09-01', 2, 'Commons: Main Chamber', 'Cancelled', 1)`)

	ev, err := repo.FutureEvent(ctx, 5)
	if err != nil {
		t.Fatalf("future event: %v", err)
	}
	if ev.Title != "Estimates Day" {
		t.Errorf("event = %+v", ev)
	}
	if _, err := repo.FutureEvent(ctx, 6); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted event: err = %v, want ErrNotFound", err)
	}
}
