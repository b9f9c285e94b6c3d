package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"omnipost/domain/model"
	"omnipost/domain/repository"
	"omnipost/infrastructure/logger"

	"github.com/google/uuid"
)

// IWorkspace is the single owner of connected accounts and posts.
type IWorkspace interface {
	Load(ctx context.Context) error
	ConnectedPlatforms() ConnectedSet

	Connect(ctx context.Context, platform model.PlatformID) (*model.ConnectStart, error)
	CompleteConnection(ctx context.Context, platform model.PlatformID, callbackURL string) (*model.ConnectedAccount, error)
	Disconnect(ctx context.Context, accountID string) error
	ResetConnections(ctx context.Context) int

	PublishNow(ctx context.Context, input model.PostInput) (*model.PostDraft, model.PublishResult)
	Queue(ctx context.Context, input model.PostInput) *model.PostDraft
	Retry(ctx context.Context, postID string) (*model.PostDraft, model.PublishResult, error)

	Accounts() []model.ConnectedAccount
	Posts() []model.PostDraft
	Post(id string) (*model.PostDraft, error)
}

type workspace struct {
	connections IConnectionUsecase
	engine      IPublishEngine
	store       repository.ISnapshot
	sinks       []repository.IPostEventPublisher
	now         func() time.Time

	mu       sync.Mutex
	accounts []model.ConnectedAccount
	posts    []model.PostDraft
	inFlight map[string]bool
	version  uint64

	// saveMu orders snapshot writes; a write older than the last saved version is skipped.
	saveMu       sync.Mutex
	savedVersion uint64
}

type WorkspaceOption func(*workspace)

func WithEventSinks(sinks ...repository.IPostEventPublisher) WorkspaceOption {
	return func(w *workspace) { w.sinks = append(w.sinks, sinks...) }
}

func WithWorkspaceClock(now func() time.Time) WorkspaceOption {
	return func(w *workspace) { w.now = now }
}

func NewWorkspace(connections IConnectionUsecase, engine IPublishEngine, store repository.ISnapshot, opts ...WorkspaceOption) IWorkspace {
	w := &workspace{
		connections: connections,
		engine:      engine,
		store:       store,
		now:         time.Now,
		inFlight:    map[string]bool{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Load replaces in-memory state with the stored snapshot. On error the workspace starts empty.
func (w *workspace) Load(ctx context.Context) error {
	snap, err := w.store.Load(ctx)
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil || snap == nil {
		w.accounts, w.posts = nil, nil
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Failed to load workspace snapshot, starting empty")
		}
		return err
	}
	w.accounts = snap.Accounts
	w.posts = snap.Posts
	logger.GetLogger().WithField("accounts", len(w.accounts)).WithField("posts", len(w.posts)).Info("Workspace loaded")
	return nil
}

func (w *workspace) ConnectedPlatforms() ConnectedSet {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connectedLocked()
}

func (w *workspace) connectedLocked() ConnectedSet {
	set := ConnectedSet{}
	for _, a := range w.accounts {
		if a.IsActive {
			set[a.Platform] = true
		}
	}
	return set
}

func (w *workspace) Connect(ctx context.Context, platform model.PlatformID) (*model.ConnectStart, error) {
	return w.connections.Begin(ctx, platform)
}

// CompleteConnection finishes the OAuth flow and upserts the account by platform.
func (w *workspace) CompleteConnection(ctx context.Context, platform model.PlatformID, callbackURL string) (*model.ConnectedAccount, error) {
	profile, err := w.connections.Finish(ctx, platform, callbackURL)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	var account model.ConnectedAccount
	found := false
	for i := range w.accounts {
		if w.accounts[i].Platform == platform {
			w.accounts[i].AccountName = profile.AccountName
			w.accounts[i].IsActive = true
			account = w.accounts[i]
			found = true
			break
		}
	}
	if !found {
		account = model.ConnectedAccount{
			ID:          uuid.NewString(),
			Platform:    platform,
			AccountName: profile.AccountName,
			IsActive:    true,
			CreatedAt:   w.now().UTC(),
		}
		w.accounts = append(w.accounts, account)
	}
	sort.SliceStable(w.accounts, func(i, j int) bool { return w.accounts[i].Platform < w.accounts[j].Platform })
	snap, v := w.snapshotLocked()
	w.mu.Unlock()

	w.persist(ctx, snap, v)
	logger.GetLogger().WithField("platform", platform).WithField("account", account.AccountName).Info("Account connected")
	return &account, nil
}

func (w *workspace) Disconnect(ctx context.Context, accountID string) error {
	w.mu.Lock()
	idx := -1
	for i, a := range w.accounts {
		if a.ID == accountID {
			idx = i
			break
		}
	}
	if idx < 0 {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", model.ErrAccountNotFound, accountID)
	}
	w.accounts = append(w.accounts[:idx], w.accounts[idx+1:]...)
	snap, v := w.snapshotLocked()
	w.mu.Unlock()

	w.persist(ctx, snap, v)
	return nil
}

// ResetConnections removes every account and returns how many were removed.
func (w *workspace) ResetConnections(ctx context.Context) int {
	w.mu.Lock()
	n := len(w.accounts)
	w.accounts = nil
	snap, v := w.snapshotLocked()
	w.mu.Unlock()

	w.persist(ctx, snap, v)
	return n
}

func (w *workspace) newPost(input model.PostInput) model.PostDraft {
	return model.PostDraft{
		ID:         uuid.NewString(),
		Content:    input.Content,
		MediaPaths: append([]string{}, input.MediaPaths...),
		Overrides:  copyOverrides(input.Overrides),
		Targets:    append([]model.PlatformID{}, input.Targets...),
		Status:     model.PostStatusDraft,
		CreatedAt:  w.now().UTC(),
		Attempts:   []model.PostAttempt{},
	}
}

// PublishNow creates a post, publishes it and stores it at the front of the post list.
func (w *workspace) PublishNow(ctx context.Context, input model.PostInput) (*model.PostDraft, model.PublishResult) {
	post := w.newPost(input)
	connected := w.ConnectedPlatforms()

	result := w.engine.Publish(ctx, &post, connected)

	w.mu.Lock()
	w.posts = append([]model.PostDraft{post}, w.posts...)
	snap, v := w.snapshotLocked()
	w.mu.Unlock()

	w.persist(ctx, snap, v)
	w.emit(ctx, model.PostEventPublished, &post, result)
	out := post.Clone()
	return &out, result
}

func (w *workspace) Queue(ctx context.Context, input model.PostInput) *model.PostDraft {
	post := w.newPost(input)
	post.Status = model.PostStatusQueued

	w.mu.Lock()
	w.posts = append([]model.PostDraft{post}, w.posts...)
	snap, v := w.snapshotLocked()
	w.mu.Unlock()

	w.persist(ctx, snap, v)
	w.emit(ctx, model.PostEventQueued, &post, model.PublishResult{Attempts: []model.PostAttempt{}})
	out := post.Clone()
	return &out
}

// Retry re-runs the failed attempts of one post. Only one retry per post may be in flight.
func (w *workspace) Retry(ctx context.Context, postID string) (*model.PostDraft, model.PublishResult, error) {
	w.mu.Lock()
	idx := w.indexOfLocked(postID)
	if idx < 0 {
		w.mu.Unlock()
		return nil, model.PublishResult{}, fmt.Errorf("%w: %s", model.ErrPostNotFound, postID)
	}
	if w.inFlight[postID] {
		w.mu.Unlock()
		return nil, model.PublishResult{}, fmt.Errorf("%w: %s", model.ErrPostBusy, postID)
	}
	w.inFlight[postID] = true
	working := w.posts[idx].Clone()
	connected := w.connectedLocked()
	w.mu.Unlock()

	result := w.engine.RetryFailedAttempts(ctx, &working, connected)

	w.mu.Lock()
	delete(w.inFlight, postID)
	if idx = w.indexOfLocked(postID); idx >= 0 {
		w.posts[idx] = working
	}
	snap, v := w.snapshotLocked()
	w.mu.Unlock()

	w.persist(ctx, snap, v)
	w.emit(ctx, model.PostEventRetried, &working, result)
	out := working.Clone()
	return &out, result, nil
}

func (w *workspace) Accounts() []model.ConnectedAccount {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]model.ConnectedAccount{}, w.accounts...)
}

func (w *workspace) Posts() []model.PostDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.PostDraft, len(w.posts))
	for i, p := range w.posts {
		out[i] = p.Clone()
	}
	return out
}

func (w *workspace) Post(id string) (*model.PostDraft, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx := w.indexOfLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrPostNotFound, id)
	}
	out := w.posts[idx].Clone()
	return &out, nil
}

func (w *workspace) indexOfLocked(id string) int {
	for i := range w.posts {
		if w.posts[i].ID == id {
			return i
		}
	}
	return -1
}

func (w *workspace) snapshotLocked() (*model.Snapshot, uint64) {
	w.version++
	snap := &model.Snapshot{
		Accounts: append([]model.ConnectedAccount{}, w.accounts...),
		Posts:    make([]model.PostDraft, len(w.posts)),
	}
	for i, p := range w.posts {
		snap.Posts[i] = p.Clone()
	}
	return snap, w.version
}

// persist writes the snapshot unless a newer one already landed. Failures are logged, never rolled back.
func (w *workspace) persist(ctx context.Context, snap *model.Snapshot, version uint64) {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()
	if version <= w.savedVersion {
		return
	}
	if err := w.store.Save(ctx, snap); err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to persist workspace snapshot")
		return
	}
	w.savedVersion = version
}

func (w *workspace) emit(ctx context.Context, kind model.PostEventType, post *model.PostDraft, result model.PublishResult) {
	if len(w.sinks) == 0 {
		return
	}
	event := &model.PostEvent{
		Type:       kind,
		PostID:     post.ID,
		Status:     post.Status,
		Success:    result.Success,
		Attempts:   result.Attempts,
		OccurredAt: w.now().UTC(),
	}
	for _, sink := range w.sinks {
		if err := sink.PublishPostEvent(ctx, event); err != nil {
			logger.GetLogger().WithField("error", err).WithField("event", kind).Warn("Failed to publish post event")
		}
	}
}

func copyOverrides(in map[model.PlatformID]string) map[model.PlatformID]string {
	out := make(map[model.PlatformID]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
