package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"omnipost/domain/model"
	"omnipost/domain/repository"
	"omnipost/infrastructure/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const simulatedFailureToken = "force_fail"

// ConnectedSet is the set of platforms with an active account.
type ConnectedSet map[model.PlatformID]bool

type IPublishEngine interface {
	// Publish runs one attempt per target, in target order, and replaces post.Attempts.
	Publish(ctx context.Context, post *model.PostDraft, connected ConnectedSet) model.PublishResult
	// RetryFailedAttempts re-runs only failed positions in place and returns just those positions.
	RetryFailedAttempts(ctx context.Context, post *model.PostDraft, connected ConnectedSet) model.PublishResult
}

// SimulatedDelivery accepts everything except content carrying the force_fail token.
type SimulatedDelivery struct{}

func (SimulatedDelivery) Deliver(ctx context.Context, platform model.PlatformID, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.Contains(strings.ToLower(content), simulatedFailureToken) {
		return fmt.Errorf("simulated platform failure")
	}
	return nil
}

type publishEngine struct {
	delivery       repository.IDelivery
	metrics        repository.IMetrics
	concurrency    int
	attemptTimeout time.Duration
	now            func() time.Time
}

type PublishOption func(*publishEngine)

func WithPublishClock(now func() time.Time) PublishOption {
	return func(e *publishEngine) { e.now = now }
}

func WithPublishMetrics(m repository.IMetrics) PublishOption {
	return func(e *publishEngine) { e.metrics = m }
}

// WithConcurrency bounds how many attempts of one post run at once.
func WithConcurrency(n int) PublishOption {
	return func(e *publishEngine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func WithAttemptTimeout(d time.Duration) PublishOption {
	return func(e *publishEngine) { e.attemptTimeout = d }
}

func NewPublishEngine(delivery repository.IDelivery, opts ...PublishOption) IPublishEngine {
	if delivery == nil {
		delivery = SimulatedDelivery{}
	}
	e := &publishEngine{
		delivery:       delivery,
		concurrency:    4,
		attemptTimeout: 10 * time.Second,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *publishEngine) Publish(ctx context.Context, post *model.PostDraft, connected ConnectedSet) model.PublishResult {
	if len(post.Targets) == 0 {
		post.Status = model.PostStatusFailed
		return model.PublishResult{Success: false, Attempts: []model.PostAttempt{}}
	}

	post.Status = model.PostStatusPublishing
	attempts := make([]model.PostAttempt, len(post.Targets))
	positions := make([]int, len(post.Targets))
	for i := range positions {
		positions[i] = i
	}
	e.runAttempts(ctx, post, post.Targets, positions, attempts, connected)

	post.Attempts = attempts
	success := e.settle(post)
	e.record(attempts)

	logger.GetLogger().WithFields(map[string]interface{}{
		"post_id": post.ID,
		"targets": len(post.Targets),
		"success": success,
	}).Info("Post published")
	return model.PublishResult{Success: success, Attempts: cloneAttempts(attempts)}
}

func (e *publishEngine) RetryFailedAttempts(ctx context.Context, post *model.PostDraft, connected ConnectedSet) model.PublishResult {
	var failed []int
	for i, a := range post.Attempts {
		if a.Status == model.AttemptFailed {
			failed = append(failed, i)
		}
	}

	if len(failed) > 0 {
		post.Status = model.PostStatusPublishing
		platforms := make([]model.PlatformID, len(failed))
		for i, idx := range failed {
			platforms[i] = post.Attempts[idx].Platform
		}
		e.runAttempts(ctx, post, platforms, failed, post.Attempts, connected)
	}
	success := e.settle(post)

	retried := make([]model.PostAttempt, 0, len(failed))
	for _, idx := range failed {
		retried = append(retried, post.Attempts[idx])
	}
	e.record(retried)

	logger.GetLogger().WithFields(map[string]interface{}{
		"post_id": post.ID,
		"retried": len(failed),
		"success": success,
	}).Info("Failed attempts retried")
	return model.PublishResult{Success: success, Attempts: cloneAttempts(retried)}
}

// runAttempts executes platforms[i] and stores the outcome at out[positions[i]].
// Each goroutine owns exactly one slot, so no locking is needed around out.
func (e *publishEngine) runAttempts(ctx context.Context, post *model.PostDraft, platforms []model.PlatformID, positions []int, out []model.PostAttempt, connected ConnectedSet) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range platforms {
		platform, pos := platforms[i], positions[i]
		content := post.ContentFor(platform)
		g.Go(func() error {
			out[pos] = e.attempt(gctx, platform, content, connected)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *publishEngine) attempt(ctx context.Context, platform model.PlatformID, content string, connected ConnectedSet) model.PostAttempt {
	a := model.PostAttempt{
		ID:       uuid.NewString(),
		Platform: platform,
		Status:   model.AttemptSuccess,
	}
	if !connected[platform] {
		msg := fmt.Sprintf("no connected account for %s", platform)
		a.Status, a.ErrorMessage = model.AttemptFailed, &msg
		a.AttemptedAt = e.now()
		return a
	}

	actx := ctx
	if e.attemptTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, e.attemptTimeout)
		defer cancel()
	}
	if err := e.delivery.Deliver(actx, platform, content); err != nil {
		msg := err.Error()
		a.Status, a.ErrorMessage = model.AttemptFailed, &msg
	}
	a.AttemptedAt = e.now()
	return a
}

// settle recomputes the aggregate status. publishedAt is refreshed on success and never cleared.
func (e *publishEngine) settle(post *model.PostDraft) bool {
	success := false
	for _, a := range post.Attempts {
		if a.Status == model.AttemptSuccess {
			success = true
			break
		}
	}
	if success {
		post.Status = model.PostStatusPublished
		now := e.now()
		post.PublishedAt = &now
	} else {
		post.Status = model.PostStatusFailed
	}
	return success
}

func (e *publishEngine) record(attempts []model.PostAttempt) {
	if e.metrics != nil && len(attempts) > 0 {
		e.metrics.ObserveAttempts(attempts)
	}
}

func cloneAttempts(in []model.PostAttempt) []model.PostAttempt {
	out := make([]model.PostAttempt, len(in))
	for i, a := range in {
		if a.ErrorMessage != nil {
			msg := *a.ErrorMessage
			a.ErrorMessage = &msg
		}
		out[i] = a
	}
	return out
}
