package upload

import (
	"context"

	"github.com/fortuna/ncaa-boxscores/internal/ncaa"
	"go.uber.org/zap"
)

// Entry is a local file waiting to be mirrored.
type Entry struct {
	Path     string
	Year     string
	Month    string
	Gender   string
	Division string
}

// NewEntry builds the entry for a target's division file.
func NewEntry(path string, t ncaa.Target) Entry {
	return Entry{
		Path:     path,
		Year:     t.Date.YYYY(),
		Month:    t.Date.MM(),
		Gender:   string(t.Gender),
		Division: string(t.Division),
	}
}

// Uploaded is a successfully mirrored entry.
type Uploaded struct {
	Entry    Entry
	RemoteID string
}

// Failed is an entry whose upload failed.
type Failed struct {
	Entry Entry
	Err   error
}

// FlushResult summarizes one flush.
type FlushResult struct {
	Uploaded []Uploaded
	Failed   []Failed
}

// Scheduler collects files to upload. Scheduling the same path more than once results in a
// single upload of whatever is on disk at flush time.
type Scheduler struct {
	remote  RemoteStore
	logger  *zap.Logger
	entries map[string]Entry
	order   []string
}

// NewScheduler creates a scheduler that uploads through remote.
func NewScheduler(remote RemoteStore, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		remote:  remote,
		logger:  logger.Named("upload"),
		entries: make(map[string]Entry),
	}
}

// Schedule records an entry, replacing any earlier entry for the same path.
func (s *Scheduler) Schedule(e Entry) {
	if _, ok := s.entries[e.Path]; !ok {
		s.order = append(s.order, e.Path)
	}
	s.entries[e.Path] = e
	s.logger.Debug("scheduled upload", zap.String("path", e.Path))
}

// Pending returns scheduled entries in first-scheduled order.
func (s *Scheduler) Pending() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, s.entries[p])
	}
	return out
}

// Flush uploads every scheduled entry once and clears the schedule. Upload failures are
// logged and reported in the result. The returned error is non-nil only if ctx ended before
// all entries were attempted.
func (s *Scheduler) Flush(ctx context.Context) (*FlushResult, error) {
	pending := s.Pending()
	s.entries = make(map[string]Entry)
	s.order = nil

	result := &FlushResult{}
	for i, e := range pending {
		if err := ctx.Err(); err != nil {
			for _, rest := range pending[i:] {
				result.Failed = append(result.Failed, Failed{Entry: rest, Err: err})
			}
			return result, err
		}

		id, err := s.upload(ctx, e)
		if err != nil {
			s.logger.Error("upload failed",
				zap.String("path", e.Path),
				zap.String("kind", string(KindOf(err))),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, Failed{Entry: e, Err: err})
			continue
		}
		s.logger.Info("uploaded", zap.String("path", e.Path), zap.String("remote_id", id))
		result.Uploaded = append(result.Uploaded, Uploaded{Entry: e, RemoteID: id})
	}
	return result, nil
}

func (s *Scheduler) upload(ctx context.Context, e Entry) (string, error) {
	folder, err := s.remote.EnsureFolderPath(ctx, e.Year, e.Month, e.Gender, e.Division)
	if err != nil {
		return "", err
	}
	return s.remote.UploadOrUpdate(ctx, e.Path, folder)
}
