package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/a11yscan/internal/archive"
	"github.com/raysh454/a11yscan/internal/history"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
)

const keepTimeout = 10 * time.Second

// observedScanner is the pipeline the recording scanner decorates.
type observedScanner interface {
	ScanObserved(ctx context.Context, req model.ScanRequest, observe func(stage string)) (*model.ScanResult, error)
}

// recordingScanner stores and archives every successful scan. Storage
// failures are logged and never fail the scan.
type recordingScanner struct {
	inner   observedScanner
	history *history.Store
	archive *archive.Store
	logger  logging.Logger
}

func (s *recordingScanner) Scan(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error) {
	return s.ScanObserved(ctx, req, nil)
}

func (s *recordingScanner) ScanObserved(ctx context.Context, req model.ScanRequest, observe func(stage string)) (*model.ScanResult, error) {
	res, err := s.inner.ScanObserved(ctx, req, observe)
	if err != nil {
		return nil, err
	}
	return s.keep(ctx, res), nil
}

// keep returns res, or a copy carrying the id it was stored under.
func (s *recordingScanner) keep(ctx context.Context, res *model.ScanResult) *model.ScanResult {
	if s.history == nil && s.archive == nil {
		return res
	}

	// The caller may already be gone; the report is still worth keeping.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), keepTimeout)
	defer cancel()

	out := res
	if s.history != nil {
		stored, err := s.history.Record(ctx, res)
		if err != nil {
			s.logger.Warn("recording scan", logging.Field{Key: "url", Value: res.URL}, logging.Field{Key: "error", Value: err.Error()})
		} else {
			out = stored
		}
	}

	if s.archive != nil {
		if out.ID == "" {
			cp := *out
			cp.ID = uuid.New().String()
			out = &cp
		}
		key, err := s.archive.Put(ctx, out)
		if err != nil {
			s.logger.Warn("archiving scan", logging.Field{Key: "id", Value: out.ID}, logging.Field{Key: "error", Value: err.Error()})
		} else {
			s.logger.Debug("archived scan", logging.Field{Key: "id", Value: out.ID}, logging.Field{Key: "key", Value: key})
		}
	}
	return out
}
