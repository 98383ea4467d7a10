package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/fortuna/ncaa-boxscores/internal/ingest/ncaacom"
	"github.com/fortuna/ncaa-boxscores/internal/ncaa"
	"github.com/fortuna/ncaa-boxscores/internal/notify"
	"github.com/fortuna/ncaa-boxscores/internal/store/csvstore"
	"github.com/fortuna/ncaa-boxscores/internal/upload"
	"go.uber.org/zap"
)

// Deps are the runner's collaborators. Flusher and Remote are nil when mirroring is off.
type Deps struct {
	Scraper    DivisionScraper
	Reconciler Reconciler
	Store      *csvstore.Store
	Flusher    Flusher
	Remote     upload.RemoteStore
	Notifier   notify.Notifier
}

// Runner executes session specs.
type Runner struct {
	deps   Deps
	logger *zap.Logger
}

// NewRunner constructs a runner.
func NewRunner(deps Deps, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	return &Runner{deps: deps, logger: logger.Named("session")}
}

// Run scrapes every target in spec. Page, game and reconciliation failures are reported and
// skipped. Run returns an error only when ctx ends or a division file cannot be removed.
func (r *Runner) Run(ctx context.Context, spec Spec, reporter Reporter) error {
	if reporter == nil {
		reporter = NopReporter{}
	}
	reporter.OnRunStart(spec)

	if err := r.run(ctx, spec, reporter); err != nil {
		reporter.OnRunError(err)
		if ctx.Err() == nil {
			r.deps.Notifier.Notify(ctx, notify.Alert{
				Severity: notify.SeverityError,
				Message:  fmt.Sprintf("Scraping run failed: %v", err),
			})
		}
		return err
	}
	return nil
}

func (r *Runner) run(ctx context.Context, spec Spec, reporter Reporter) error {
	if len(spec.Dates) == 0 || len(spec.Divisions) == 0 || len(spec.Genders) == 0 {
		return errors.New("session spec needs at least one date, division and gender")
	}

	if spec.Precheck && r.deps.Remote != nil {
		r.precheck(ctx, spec)
	}

	summary := Summary{Targets: spec.Targets()}
	total := len(spec.Dates)
	for idx, date := range spec.Dates {
		if err := ctx.Err(); err != nil {
			return err
		}
		reporter.OnDateStart(date, idx, total)

		for _, gender := range spec.Genders {
			if err := r.runSession(ctx, spec, ncaa.NewSession(date, gender), reporter, &summary); err != nil {
				return err
			}
		}
	}

	if spec.Upload && r.deps.Flusher != nil {
		res, err := r.deps.Flusher.Flush(ctx)
		if res != nil {
			summary.Uploaded = len(res.Uploaded)
			summary.UploadsFailed = len(res.Failed)
			reporter.OnFlushed(res)
		}
		if err != nil {
			return fmt.Errorf("flushing uploads: %w", err)
		}
	}

	reporter.OnRunComplete(summary)
	r.deps.Notifier.Notify(ctx, notify.Alert{
		Severity: notify.SeveritySuccess,
		Message: fmt.Sprintf("Scraping complete: %d games written across %d targets (%d failed), %d duplicates flagged",
			summary.GamesWritten, summary.Targets, summary.TargetsFailed, summary.Duplicates),
	})
	r.logger.Info("run complete",
		zap.Int("targets", summary.Targets),
		zap.Int("targets_failed", summary.TargetsFailed),
		zap.Int("games_written", summary.GamesWritten),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("reconcile_failures", summary.ReconcileFailures),
		zap.Int("uploaded", summary.Uploaded),
	)
	return nil
}

// runSession scrapes every division for one date and gender, then reconciles. Reconciliation
// starts only after every division has returned.
func (r *Runner) runSession(ctx context.Context, spec Spec, sess *ncaa.Session, reporter Reporter, summary *Summary) error {
	for _, division := range spec.Divisions {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := ncaa.Target{Date: sess.Date, Gender: sess.Gender, Division: division}

		if spec.Force {
			if err := r.deps.Store.Remove(r.deps.Store.Path(t)); err != nil {
				return err
			}
		}

		res, err := r.deps.Scraper.ScrapeDivision(ctx, sess, t)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		reporter.OnDivisionComplete(res, err)
		if err != nil {
			if ncaacom.KindOf(err) != ncaacom.KindNoGames {
				summary.TargetsFailed++
			}
			continue
		}
		summary.GamesWritten += res.Written
		summary.GamesFailed += res.Failed
	}

	rec, err := r.deps.Reconciler.Reconcile(ctx, sess)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		summary.ReconcileFailures++
		r.logger.Warn("reconciliation failed, continuing",
			zap.String("date", sess.Date.String()),
			zap.String("gender", string(sess.Gender)),
			zap.Error(err),
		)
		r.deps.Notifier.Notify(ctx, notify.Alert{
			Severity: notify.SeverityWarning,
			Message:  fmt.Sprintf("Reconciliation failed for %s %s: %v", sess.Date, sess.Gender, err),
		})
		return nil
	}
	summary.Duplicates += len(rec.Duplicates)
	summary.FilesRewritten += len(rec.Rewritten)
	reporter.OnReconciled(rec)
	return nil
}

// precheck logs which target files are already mirrored. Failures are logged only.
func (r *Runner) precheck(ctx context.Context, spec Spec) {
	existing, total := 0, 0
	for _, date := range spec.Dates {
		for _, t := range ncaa.GenerateTargets(date, spec.Divisions, spec.Genders) {
			if ctx.Err() != nil {
				return
			}
			total++
			folder, err := r.deps.Remote.EnsureFolderPath(ctx, t.Date.YYYY(), t.Date.MM(), string(t.Gender), string(t.Division))
			if err != nil {
				r.logger.Warn("precheck failed", zap.String("target", t.String()), zap.Error(err))
				continue
			}
			_, ok, err := r.deps.Remote.FileExists(ctx, csvstore.FileName(t.Date, t.Gender, t.Division), folder)
			if err != nil {
				r.logger.Warn("precheck failed", zap.String("target", t.String()), zap.Error(err))
				continue
			}
			if ok {
				existing++
				r.logger.Info("already mirrored", zap.String("target", t.String()))
			} else {
				r.logger.Info("needs scraping", zap.String("target", t.String()))
			}
		}
	}
	r.logger.Info("remote precheck complete", zap.Int("existing", existing), zap.Int("total", total))
}
