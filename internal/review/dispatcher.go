// Package review hands pull requests to the AI review pipeline without
// blocking the webhook that asked for them.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"claimwork/internal/config"
	"claimwork/internal/logging"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultDedupeSize = 512
)

// Job identifies one review request.
type Job struct {
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
	PRNumber int    `json:"pr_number"`
	TicketID string `json:"ticket_id"`
	// HeadSHA lets the pipeline skip a commit it already reviewed.
	HeadSHA string `json:"head_sha,omitempty"`
	Action  string `json:"action,omitempty"`
}

func (j Job) key() string {
	return fmt.Sprintf("%s|%s/%s#%d|%s", j.TicketID, j.Owner, j.Repo, j.PRNumber, j.HeadSHA)
}

// Sender delivers a job to the pipeline.
type Sender interface {
	Send(ctx context.Context, job Job) error
}

// Dispatcher runs each job on its own goroutine with a bounded timeout.
// Outcomes are only logged. Identical jobs (same ticket, PR and head commit)
// seen recently are dropped so redelivered webhooks do not re-run a review.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	log     *slog.Logger
	seen    *lru.Cache[string, struct{}]
	wg      sync.WaitGroup
}

// Options configure a Dispatcher.
type Options struct {
	Timeout    time.Duration
	DedupeSize int
	Logger     *slog.Logger
}

func NewDispatcher(sender Sender, opts Options) (*Dispatcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.DedupeSize <= 0 {
		opts.DedupeSize = defaultDedupeSize
	}
	if opts.Logger == nil {
		opts.Logger = logging.With("component", "review")
	}
	seen, err := lru.New[string, struct{}](opts.DedupeSize)
	if err != nil {
		return nil, fmt.Errorf("review dedupe cache: %w", err)
	}
	return &Dispatcher{sender: sender, timeout: opts.Timeout, log: opts.Logger, seen: seen}, nil
}

// FromConfig wires the HTTP sender, or a logging no-op when no endpoint is set.
func FromConfig(cfg config.ReviewConfig, logger *slog.Logger) (*Dispatcher, error) {
	var sender Sender = NoopSender{Logger: logger}
	if cfg.Endpoint != "" {
		sender = NewHTTPSender(cfg.Endpoint, cfg.Secret, cfg.Timeout())
	}
	return NewDispatcher(sender, Options{Timeout: cfg.Timeout(), DedupeSize: cfg.DedupeSize, Logger: logger})
}

// Trigger schedules job and returns immediately. The caller's context only
// contributes values; its cancellation does not abort the dispatch.
func (d *Dispatcher) Trigger(ctx context.Context, job Job) {
	key := job.key()
	if found, _ := d.seen.ContainsOrAdd(key, struct{}{}); found {
		d.log.Debug("review already requested", "ticket_id", job.TicketID, "pr_number", job.PRNumber, "head_sha", job.HeadSHA)
		return
	}
	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.seen.Remove(key)
				d.log.Error("review dispatch panicked", "ticket_id", job.TicketID, "panic", r)
			}
		}()
		sendCtx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()
		if err := d.sender.Send(sendCtx, job); err != nil {
			// Forget the job so a later delivery can retry it.
			d.seen.Remove(key)
			logging.CaptureError(err, "ticket_id", job.TicketID, "repo", job.Owner+"/"+job.Repo, "pr_number", job.PRNumber)
			d.log.Warn("review dispatch failed", "ticket_id", job.TicketID, "pr_number", job.PRNumber, "error", err)
			return
		}
		d.log.Info("review requested", "ticket_id", job.TicketID, "repo", job.Owner+"/"+job.Repo, "pr_number", job.PRNumber)
	}()
}

// Wait blocks until in-flight dispatches finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// NoopSender drops jobs when no pipeline is configured.
type NoopSender struct {
	Logger *slog.Logger
}

func (s NoopSender) Send(_ context.Context, job Job) error {
	if s.Logger != nil {
		s.Logger.Info("review endpoint not configured; skipping", "ticket_id", job.TicketID, "pr_number", job.PRNumber)
	}
	return nil
}
