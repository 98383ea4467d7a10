package ncaacom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fortuna/ncaa-boxscores/internal/ncaa"
	"github.com/fortuna/ncaa-boxscores/internal/notify"
	"github.com/fortuna/ncaa-boxscores/internal/retry"
	"github.com/fortuna/ncaa-boxscores/internal/store/csvstore"
	"github.com/fortuna/ncaa-boxscores/internal/upload"
	"go.uber.org/zap"
)

// PageSource returns rendered ncaa.com pages. Client is the browser-backed implementation.
type PageSource interface {
	ScoreboardHTML(ctx context.Context, url string) (string, error)
	BoxScoreHTML(ctx context.Context, link string) (first, second string, err error)
}

// Scheduler receives division files that should be mirrored.
type Scheduler interface {
	Schedule(e upload.Entry)
}

// Config wires the ingester's collaborators. Notifier and Scheduler are optional.
type Config struct {
	Policy    retry.Policy
	Notifier  notify.Notifier
	Scheduler Scheduler
}

// DivisionResult summarizes one scoreboard.
type DivisionResult struct {
	Target  ncaa.Target
	Path    string
	Links   int
	Written int
	Skipped int
	Failed  int
}

// Ingester scrapes ncaa.com scoreboards and box scores into division CSV files.
type Ingester struct {
	pages     PageSource
	store     *csvstore.Store
	policy    retry.Policy
	notifier  notify.Notifier
	scheduler Scheduler
	logger    *zap.Logger
}

// NewIngester creates an ingester reading pages from pages and writing to store.
func NewIngester(pages PageSource, store *csvstore.Store, cfg Config, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	return &Ingester{
		pages:     pages,
		store:     store,
		policy:    cfg.Policy,
		notifier:  cfg.Notifier,
		scheduler: cfg.Scheduler,
		logger:    logger.Named("ingest"),
	}
}

// ScrapeDivision scrapes every game on a target's scoreboard. Per-game failures are logged,
// notified and counted; only scoreboard-level failures and cancellation are returned.
func (i *Ingester) ScrapeDivision(ctx context.Context, sess *ncaa.Session, t ncaa.Target) (*DivisionResult, error) {
	url := ncaa.ScoreboardURL(t)
	result := &DivisionResult{Target: t, Path: i.store.Path(t)}
	log := i.logger.With(zap.String("target", t.String()))

	links, err := i.gameLinks(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		i.reportPageError(ctx, t, err)
		return result, err
	}
	result.Links = len(links)
	log.Info("scoreboard loaded", zap.String("url", url), zap.Int("games", len(links)))

	for _, link := range links {
		if sess.Visited(t.Division, link) {
			result.Skipped++
			continue
		}

		rec, err := i.ScrapeGame(ctx, sess, t, link)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed++
			log.Error("game failed",
				zap.String("link", link),
				zap.String("kind", string(KindOf(err))),
				zap.Error(err),
			)
			alert := notify.NewAlert(notify.SeverityGameError, t, fmt.Sprintf("Error scraping game: %v", err))
			alert.GameLink = link
			i.notifier.Notify(ctx, alert)
			continue
		}

		sess.MarkVisited(t.Division, link)
		if rec == nil {
			result.Skipped++
			continue
		}
		result.Written++
	}

	if result.Written > 0 && i.scheduler != nil {
		i.scheduler.Schedule(upload.NewEntry(result.Path, t))
	}
	log.Info("division complete",
		zap.Int("written", result.Written),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// ScrapeGame scrapes one box score and appends it to the target's CSV. It returns nil, nil
// when the game is already in the file.
func (i *Ingester) ScrapeGame(ctx context.Context, sess *ncaa.Session, t ncaa.Target, link string) (*ncaa.GameRecord, error) {
	gameID := ncaa.GameIDFromLink(link)
	if gameID == "" {
		return nil, newError(KindPageStructure, link, errors.New("no game id in link"))
	}

	path, err := i.store.EnsurePath(t)
	if err != nil {
		return nil, newError(KindWrite, link, err)
	}
	exists, err := i.store.HasGame(path, gameID)
	if err != nil {
		return nil, newError(KindWrite, link, fmt.Errorf("checking existing rows: %w", err))
	}
	if exists {
		i.logger.Info("game already in file, skipping", zap.String("game_id", gameID), zap.String("path", path))
		return nil, nil
	}

	var firstHTML, secondHTML string
	err = i.load(ctx, link, func(ctx context.Context) error {
		var err error
		firstHTML, secondHTML, err = i.pages.BoxScoreHTML(ctx, link)
		return err
	})
	if err != nil {
		return nil, err
	}

	first, err := ParseHTML(firstHTML)
	if err != nil {
		return nil, newError(KindExtraction, link, err)
	}
	if !HasTeamSelector(first) {
		return nil, newError(KindPageUnavailable, link, errors.New("box score page may not exist or is not available"))
	}
	teams := ParseTeamNames(first)
	if len(teams) < 2 || secondHTML == "" {
		return nil, newError(KindIncompleteTeamData, link, fmt.Errorf("found %d team names", len(teams)))
	}

	rec := &ncaa.GameRecord{
		GameID:   gameID,
		GameLink: link,
		Date:     t.Date,
		Division: t.Division,
		Gender:   t.Gender,
	}
	rec.Teams[0], err = teamBoxScore(first, teams[0], teams[1])
	if err != nil {
		return nil, newError(KindExtraction, link, fmt.Errorf("%s: %w", teams[0], err))
	}

	second, err := ParseHTML(secondHTML)
	if err != nil {
		return nil, newError(KindExtraction, link, err)
	}
	rec.Teams[1], err = teamBoxScore(second, teams[1], teams[0])
	if err != nil {
		return nil, newError(KindExtraction, link, fmt.Errorf("%s: %w", teams[1], err))
	}

	n, err := i.store.AppendRecord(path, rec)
	if err != nil {
		return nil, newError(KindWrite, link, err)
	}
	sess.RecordGame(gameID, t.Division)
	i.logger.Info("saved game", zap.String("game_id", gameID), zap.Int("rows", n), zap.String("path", path))
	return rec, nil
}

func teamBoxScore(doc *goquery.Document, team, opponent string) (ncaa.TeamBoxScore, error) {
	cols, rows, err := ParseBoxScoreTable(doc)
	if err != nil {
		return ncaa.TeamBoxScore{}, err
	}
	return ncaa.TeamBoxScore{Team: team, Opponent: opponent, Columns: cols, Rows: rows}, nil
}

// gameLinks loads a scoreboard and classifies pages without game links.
func (i *Ingester) gameLinks(ctx context.Context, url string) ([]string, error) {
	var html string
	err := i.load(ctx, url, func(ctx context.Context) error {
		var err error
		html, err = i.pages.ScoreboardHTML(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}

	doc, err := ParseHTML(html)
	if err != nil {
		return nil, newError(KindPageStructure, url, err)
	}
	links := ParseGameLinks(doc)
	if len(links) > 0 {
		return links, nil
	}
	if msg := DetectPageError(doc); msg != "" {
		return nil, newError(KindPageUnavailable, url, errors.New(msg))
	}
	if HasGamePods(doc) {
		return nil, newError(KindPageStructure, url, errors.New("game pods without box score links"))
	}
	return nil, newError(KindNoGames, url, nil)
}

// load runs fn under the retry policy. Only page-load failures are retried.
func (i *Ingester) load(ctx context.Context, url string, fn func(ctx context.Context) error) error {
	p := i.policy
	p.OnRetry = func(attempt int, err error, wait time.Duration) {
		i.logger.Warn("page load failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
	return p.Do(ctx, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && !Retryable(err) {
			return retry.Permanent(err)
		}
		return err
	})
}

func (i *Ingester) reportPageError(ctx context.Context, t ncaa.Target, err error) {
	log := i.logger.With(zap.String("target", t.String()))
	switch KindOf(err) {
	case KindNoGames:
		log.Warn("no games found on scoreboard", zap.String("url", ncaa.ScoreboardURL(t)))
	case KindPageUnavailable, KindPageStructure:
		log.Warn("scoreboard unavailable", zap.Error(err))
		i.notifier.Notify(ctx, notify.NewAlert(notify.SeverityWarning, t, err.Error()))
	default:
		log.Error("failed to load scoreboard", zap.Error(err))
		i.notifier.Notify(ctx, notify.NewAlert(notify.SeverityError, t, fmt.Sprintf("Failed to load scoreboard page: %v", err)))
	}
}
