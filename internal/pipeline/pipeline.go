// Package pipeline drives one ingest run end to end: list unread
// notification mail, fetch bodies in rate-limited batches, parse each
// through the source registry, persist whatever the dedup cache has not
// seen, and optionally archive the processed messages.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"mailhunt-engine/internal/dedup"
	"mailhunt-engine/internal/domain"
	"mailhunt-engine/internal/mailstore"
	"mailhunt-engine/internal/parse"
)

const (
	fetchBatchSize = 5
	batchDelay     = 300 * time.Millisecond
)

// MailStore is the transport side of a run; *mailstore.Client satisfies it.
type MailStore interface {
	List(ctx context.Context, q mailstore.Criteria) ([]mailstore.ID, error)
	Fetch(ctx context.Context, id mailstore.ID) (mailstore.Message, error)
	Archive(ctx context.Context, ids []mailstore.ID) error
}

// JobStore is the persistence side. Insert assigns the record id; the
// pipeline only needs the snapshot-and-create pair, nothing else.
type JobStore interface {
	Snapshot(ctx context.Context) ([]dedup.Seed, error)
	Insert(ctx context.Context, c domain.IngestCandidate) (int64, error)
}

// Request selects the messages for one run.
type Request struct {
	Mailbox string
	Senders []string
	Since   time.Time
	Before  time.Time
	Archive bool
}

type Runner struct {
	Mail       MailStore
	Jobs       JobStore
	Registry   *parse.Registry
	Log        *zap.SugaredLogger
	OnProgress func(Progress)
}

// Run executes the five phases in order. A context cancellation is a
// clean stop, not an error: the Result comes back with Cancelled set and
// the saved count intact. Any transport or snapshot failure aborts the
// run with a *PhaseError.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	var res Result
	lim := rate.NewLimiter(rate.Every(batchDelay), 1)

	r.emit(Progress{Phase: PhaseListing, Message: "searching mailbox"})
	ids, err := r.Mail.List(ctx, mailstore.Criteria{
		Mailbox: req.Mailbox,
		Senders: req.Senders,
		Since:   req.Since,
		Before:  req.Before,
	})
	if err != nil {
		return r.abort(ctx, res, PhaseListing, err)
	}
	res.Found = len(ids)
	r.emit(Progress{Phase: PhaseListing, Current: len(ids), Total: len(ids),
		Message: fmt.Sprintf("%d messages to process", len(ids))})
	if len(ids) == 0 {
		r.emit(Progress{Phase: PhaseDone, Message: "no new messages"})
		return res, nil
	}

	msgs := make([]mailstore.Message, 0, len(ids))
	for start := 0; start < len(ids); start += fetchBatchSize {
		if err := lim.Wait(ctx); err != nil {
			return r.stop(res), nil
		}
		chunk := ids[start:min(start+fetchBatchSize, len(ids))]
		got := make([]mailstore.Message, len(chunk))
		g, gctx := errgroup.WithContext(ctx)
		for i, id := range chunk {
			g.Go(func() error {
				m, err := r.Mail.Fetch(gctx, id)
				if err != nil {
					return fmt.Errorf("fetch uid %d: %w", id, err)
				}
				got[i] = m
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return r.abort(ctx, res, PhaseFetching, err)
		}
		msgs = append(msgs, got...)
		r.emit(Progress{Phase: PhaseFetching, Current: len(msgs), Total: len(ids),
			Message: fmt.Sprintf("fetched %d/%d", len(msgs), len(ids))})
	}

	var cands []domain.IngestCandidate
	for i, m := range msgs {
		if ctx.Err() != nil {
			return r.stop(res), nil
		}
		body := m.HTMLBody
		if body == "" {
			body = m.TextBody
		}
		jobs := r.Registry.Extract(m.From, body)
		for _, j := range jobs {
			cands = append(cands, domain.IngestCandidate{
				ExtractedJob: j,
				EmailID:      strconv.FormatUint(uint64(m.ID), 10),
				DateReceived: m.Received,
			})
		}
		r.emit(Progress{Phase: PhaseParsing, Current: i + 1, Total: len(msgs),
			NewJobs: len(cands),
			Message: fmt.Sprintf("parsed %d/%d, %d jobs so far", i+1, len(msgs), len(cands))})
	}

	seeds, err := r.Jobs.Snapshot(ctx)
	if err != nil {
		return r.abort(ctx, res, PhaseSaving, err)
	}
	cache := dedup.New(seeds)
	for i, c := range cands {
		if ctx.Err() != nil {
			return r.stop(res), nil
		}
		if cache.Has(c) {
			continue
		}
		if _, err := r.Jobs.Insert(ctx, c); err != nil {
			if ctx.Err() != nil {
				return r.stop(res), nil
			}
			r.logw().Warnw("skipping candidate after save failure",
				"title", c.Title, "company", c.Company, "err", err)
			continue
		}
		cache.Add(c)
		res.Saved++
		r.emit(Progress{Phase: PhaseSaving, Current: i + 1, Total: len(cands),
			NewJobs: res.Saved,
			Message: fmt.Sprintf("saved %d new jobs", res.Saved)})
	}

	if req.Archive {
		for start := 0; start < len(ids); start += fetchBatchSize {
			if err := lim.Wait(ctx); err != nil {
				return r.stop(res), nil
			}
			chunk := ids[start:min(start+fetchBatchSize, len(ids))]
			if err := r.Mail.Archive(ctx, chunk); err != nil {
				return r.abort(ctx, res, PhaseArchiving, err)
			}
			res.Archived += len(chunk)
			r.emit(Progress{Phase: PhaseArchiving, Current: res.Archived, Total: len(ids),
				NewJobs: res.Saved,
				Message: fmt.Sprintf("archived %d/%d", res.Archived, len(ids))})
		}
	}

	r.emit(Progress{Phase: PhaseDone, Current: res.Found, Total: res.Found,
		NewJobs: res.Saved,
		Message: fmt.Sprintf("done: %d found, %d new, %d archived", res.Found, res.Saved, res.Archived)})
	return res, nil
}

// abort wraps a phase failure, unless the real cause was the caller
// cancelling the run, in which case it degrades to a clean stop.
func (r *Runner) abort(ctx context.Context, res Result, p Phase, err error) (Result, error) {
	if ctx.Err() != nil {
		return r.stop(res), nil
	}
	r.logw().Errorw("ingest run aborted", "phase", p, "saved", res.Saved, "err", err)
	return res, &PhaseError{Phase: p, Saved: res.Saved, Err: err}
}

func (r *Runner) stop(res Result) Result {
	res.Cancelled = true
	r.logw().Infow("ingest run cancelled", "saved", res.Saved)
	r.emit(Progress{Phase: PhaseDone, NewJobs: res.Saved, Message: "cancelled"})
	return res
}

func (r *Runner) emit(p Progress) {
	if r.OnProgress != nil {
		r.OnProgress(p)
	}
}

func (r *Runner) logw() *zap.SugaredLogger {
	if r.Log == nil {
		return zap.NewNop().Sugar()
	}
	return r.Log
}
