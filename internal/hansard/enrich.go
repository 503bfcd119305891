package hansard

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/openparl/hansard/internal/domain"
)

// extras selects the per-item decorations fetch attaches. Body and speaker
// widen the row query; the rest cost one query per row and are only turned
// on where the view shows them.
type extras struct {
	body    bool
	speaker bool
	comment bool
	votes   bool
	excerpt bool
}

// noindexEpobjectID marks a single row removed from indexing by agreement.
// Any view containing it is served with a noindex directive.
const noindexEpobjectID = 15674958

var (
	spWransCodeRe   = regexp.MustCompile(`\d{4}-\d\d-\d\d\.(.*?)\.q`)
	spDebatesCodeRe = regexp.MustCompile(`\((S\d+\w+-\d+)\)`)
)

// fetch runs an item query and enriches each row.
func (sn *Session) fetch(ctx context.Context, q domain.ItemQuery, ex extras) ([]domain.Item, error) {
	q.Amount = domain.ItemAmount{Body: ex.body, Speaker: ex.speaker}
	rows, err := sn.svc.store.FetchItems(ctx, q)
	if err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(rows))
	for _, row := range rows {
		item, err := sn.enrich(ctx, row, ex)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (sn *Session) enrich(ctx context.Context, row domain.ItemRow, ex extras) (domain.Item, error) {
	item := domain.Item{ItemRow: row}
	major := sn.svc.majors[row.Major]

	if row.EpobjectID == noindexEpobjectID {
		sn.robots = "noindex"
	}

	if err := sn.attachMentions(ctx, &item); err != nil {
		return item, err
	}

	if row.HType.IsHeading() && major.Type == domain.MajorDebate {
		count, err := sn.svc.store.SpeechCount(ctx, row.EpobjectID, row.HType == domain.HTypeSection)
		if err != nil {
			return item, fmt.Errorf("count speeches under %d: %w", row.EpobjectID, err)
		}
		item.ContentCount = &count
	}

	if ex.excerpt && row.HType.IsHeading() {
		body, err := sn.svc.store.FirstBody(ctx, row.EpobjectID, row.HType == domain.HTypeSection)
		if err != nil {
			return item, fmt.Errorf("fetch excerpt for %d: %w", row.EpobjectID, err)
		}
		item.Excerpt = body
	}

	listURL, err := sn.listURL(ctx, major, row, nil)
	if err != nil {
		return item, err
	}
	item.ListURL = listURL
	item.CommentsURL, err = sn.commentsURL(ctx, major, row)
	if err != nil {
		return item, err
	}

	if ex.votes && voteable(row) {
		tally, err := sn.svc.store.VoteCounts(ctx, row.EpobjectID)
		if err != nil {
			return item, fmt.Errorf("fetch votes for %d: %w", row.EpobjectID, err)
		}
		item.Votes = &tally
	}

	if ex.speaker && row.SpeakerID > 0 {
		sp, err := sn.speaker(ctx, row.SpeakerID, row.HDate)
		if err != nil {
			return item, err
		}
		item.Speaker = sp
	}

	if ex.comment {
		if err := sn.attachComments(ctx, &item, major); err != nil {
			return item, err
		}
	}

	return item, nil
}

// voteable reports whether agree/disagree tallies apply: answers in the
// written-answer categories.
func voteable(row domain.ItemRow) bool {
	return (row.Major == domain.MajorWrans || row.Major == domain.MajorSPWrans) &&
		row.HType == domain.HTypeSpeech
}

// attachMentions loads cross-references for Scottish parliament rows. Both
// categories key mentions on the question code, recovered from the gid for
// written answers and from the body for spoken references.
func (sn *Session) attachMentions(ctx context.Context, item *domain.Item) error {
	var code string
	switch item.Major {
	case domain.MajorSPWrans:
		if item.HType != domain.HTypeSpeech || item.Minor != 1 {
			return nil
		}
		m := spWransCodeRe.FindStringSubmatch(item.Gid)
		if m == nil {
			return nil
		}
		code = m[1]
	case domain.MajorSPDebates:
		m := spDebatesCodeRe.FindStringSubmatch(stripTags(item.Body))
		if m == nil {
			return nil
		}
		code = m[1]
	default:
		return nil
	}

	mentions, err := sn.svc.store.Mentions(ctx, code)
	if err != nil {
		return fmt.Errorf("fetch mentions for %q: %w", code, err)
	}
	item.Mentions = mentions
	return nil
}

func (sn *Session) attachComments(ctx context.Context, item *domain.Item, major domain.Major) error {
	var (
		total int
		err   error
	)
	if item.HType.IsHeading() && major.Type == domain.MajorDebate {
		total, err = sn.svc.store.HeadingCommentCount(ctx, item.EpobjectID, item.HType == domain.HTypeSection)
	} else {
		total, err = sn.svc.store.CommentCount(ctx, item.EpobjectID)
	}
	if err != nil {
		return fmt.Errorf("count comments for %d: %w", item.EpobjectID, err)
	}

	summary := &domain.CommentSummary{Total: total}
	if total > 0 && !item.HType.IsHeading() {
		earliest, err := sn.svc.store.EarliestComment(ctx, item.EpobjectID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("fetch earliest comment for %d: %w", item.EpobjectID, err)
		}
		summary.Earliest = earliest
	}
	item.Comments = summary
	return nil
}
