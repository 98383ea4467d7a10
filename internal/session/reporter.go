package session

import (
	"github.com/fortuna/ncaa-boxscores/internal/ingest/ncaacom"
	"github.com/fortuna/ncaa-boxscores/internal/ncaa"
	"github.com/fortuna/ncaa-boxscores/internal/reconciliation"
	"github.com/fortuna/ncaa-boxscores/internal/upload"
	"go.uber.org/zap"
)

// NopReporter ignores every callback.
type NopReporter struct{}

func (NopReporter) OnRunStart(Spec) {}
func (NopReporter) OnDateStart(ncaa.Date, int, int) {}
func (NopReporter) OnDivisionComplete(*ncaacom.DivisionResult, error) {}
func (NopReporter) OnReconciled(*reconciliation.Result) {}
func (NopReporter) OnFlushed(*upload.FlushResult) {}
func (NopReporter) OnRunComplete(Summary) {}
func (NopReporter) OnRunError(error) {}

// LogReporter writes progress to a zap logger.
type LogReporter struct {
	logger *zap.Logger
}

// NewLogReporter creates a reporter logging under "progress".
func NewLogReporter(logger *zap.Logger) *LogReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogReporter{logger: logger.Named("progress")}
}

func (r *LogReporter) OnRunStart(spec Spec) {
	r.logger.Info("starting run",
		zap.Int("dates", len(spec.Dates)),
		zap.Int("targets", spec.Targets()),
		zap.Bool("force", spec.Force),
		zap.Bool("upload", spec.Upload),
	)
}

func (r *LogReporter) OnDateStart(date ncaa.Date, index int, total int) {
	r.logger.Info("processing date",
		zap.String("date", date.String()),
		zap.Int("index", index+1),
		zap.Int("total", total),
	)
}

func (r *LogReporter) OnDivisionComplete(res *ncaacom.DivisionResult, err error) {
	if res == nil {
		return
	}
	if err != nil {
		r.logger.Warn("division not scraped",
			zap.String("target", res.Target.String()),
			zap.String("kind", string(ncaacom.KindOf(err))),
		)
		return
	}
	r.logger.Info("division scraped",
		zap.String("target", res.Target.String()),
		zap.Int("written", res.Written),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
}

func (r *LogReporter) OnReconciled(res *reconciliation.Result) {
	r.logger.Info("reconciled",
		zap.String("date", res.Date.String()),
		zap.String("gender", string(res.Gender)),
		zap.Int("duplicates", len(res.Duplicates)),
		zap.Int("rewritten", len(res.Rewritten)),
		zap.Int("unreadable", len(res.Skipped)),
	)
}

func (r *LogReporter) OnFlushed(res *upload.FlushResult) {
	r.logger.Info("uploads flushed",
		zap.Int("uploaded", len(res.Uploaded)),
		zap.Int("failed", len(res.Failed)),
	)
}

func (r *LogReporter) OnRunComplete(s Summary) {
	r.logger.Info("run finished",
		zap.Int("targets", s.Targets),
		zap.Int("games_written", s.GamesWritten),
		zap.Int("games_failed", s.GamesFailed),
		zap.Int("files_rewritten", s.FilesRewritten),
		zap.Int("reconcile_failures", s.ReconcileFailures),
	)
}

func (r *LogReporter) OnRunError(err error) {
	r.logger.Error("run failed", zap.Error(err))
}

// MultiReporter fans callbacks out to each reporter in order.
type MultiReporter []Reporter

func (m MultiReporter) OnRunStart(spec Spec) {
	for _, r := range m {
		r.OnRunStart(spec)
	}
}

func (m MultiReporter) OnDateStart(date ncaa.Date, index int, total int) {
	for _, r := range m {
		r.OnDateStart(date, index, total)
	}
}

func (m MultiReporter) OnDivisionComplete(res *ncaacom.DivisionResult, err error) {
	for _, r := range m {
		r.OnDivisionComplete(res, err)
	}
}

func (m MultiReporter) OnReconciled(res *reconciliation.Result) {
	for _, r := range m {
		r.OnReconciled(res)
	}
}

func (m MultiReporter) OnFlushed(res *upload.FlushResult) {
	for _, r := range m {
		r.OnFlushed(res)
	}
}

func (m MultiReporter) OnRunComplete(s Summary) {
	for _, r := range m {
		r.OnRunComplete(s)
	}
}

func (m MultiReporter) OnRunError(err error) {
	for _, r := range m {
		r.OnRunError(err)
	}
}
