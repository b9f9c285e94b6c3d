package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"omnipost/domain/model"
	"omnipost/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockConnection struct {
	mock.Mock
}

func (m *MockConnection) Begin(ctx context.Context, platform model.PlatformID) (*model.ConnectStart, error) {
	args := m.Called(ctx, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectStart), args.Error(1)
}

func (m *MockConnection) Finish(ctx context.Context, platform model.PlatformID, callbackURL string) (*model.ConnectedProfile, error) {
	args := m.Called(ctx, platform, callbackURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectedProfile), args.Error(1)
}

func (m *MockConnection) Pending(platform model.PlatformID) (*model.PendingOAuthSession, bool) {
	args := m.Called(platform)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*model.PendingOAuthSession), args.Bool(1)
}

type workspaceFixture struct {
	conn  *MockConnection
	store *MockSnapshot
	sink  *MockPostEventPublisher
	ws    usecase.IWorkspace
}

func newWorkspaceFixture(t *testing.T, engine usecase.IPublishEngine) *workspaceFixture {
	t.Helper()
	f := &workspaceFixture{
		conn:  new(MockConnection),
		store: new(MockSnapshot),
		sink:  new(MockPostEventPublisher),
	}
	if engine == nil {
		engine = newEngine()
	}
	f.store.On("Save", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.sink.On("PublishPostEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.ws = usecase.NewWorkspace(f.conn, engine, f.store,
		usecase.WithEventSinks(f.sink),
		usecase.WithWorkspaceClock(func() time.Time { return fixedNow }))
	return f
}

func (f *workspaceFixture) connect(t *testing.T, platform model.PlatformID, name string) *model.ConnectedAccount {
	t.Helper()
	f.conn.On("Finish", mock.Anything, platform, "cb").
		Return(&model.ConnectedProfile{Platform: platform, AccountName: name, AccountID: "remote"}, nil).Once()
	account, err := f.ws.CompleteConnection(context.Background(), platform, "cb")
	require.NoError(t, err)
	return account
}

func TestWorkspace_LoadFailureStartsEmpty(t *testing.T) {
	f := newWorkspaceFixture(t, nil)
	f.store.On("Load", mock.Anything).Return(nil, errors.New("disk gone")).Once()

	err := f.ws.Load(context.Background())

	assert.Error(t, err)
	assert.Empty(t, f.ws.Accounts())
	assert.Empty(t, f.ws.Posts())
}

func TestWorkspace_LoadRestoresSnapshot(t *testing.T) {
	f := newWorkspaceFixture(t, nil)
	f.store.On("Load", mock.Anything).Return(&model.Snapshot{
		Accounts: []model.ConnectedAccount{{ID: "a1", Platform: model.PlatformReddit, AccountName: "r", IsActive: true}},
		Posts:    []model.PostDraft{{ID: "p1", Status: model.PostStatusQueued}},
	}, nil).Once()

	require.NoError(t, f.ws.Load(context.Background()))

	assert.Len(t, f.ws.Accounts(), 1)
	assert.True(t, f.ws.ConnectedPlatforms()[model.PlatformReddit])
	post, err := f.ws.Post("p1")
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusQueued, post.Status)
}

func TestWorkspace_CompleteConnection_UpsertsByPlatformAndSorts(t *testing.T) {
	f := newWorkspaceFixture(t, nil)

	tw := f.connect(t, model.PlatformTwitter, "first")
	f.connect(t, model.PlatformFacebook, "fb")
	again := f.connect(t, model.PlatformTwitter, "second")

	assert.Equal(t, tw.ID, again.ID, "reconnecting keeps the account id")
	accounts := f.ws.Accounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, model.PlatformFacebook, accounts[0].Platform)
	assert.Equal(t, model.PlatformTwitter, accounts[1].Platform)
	assert.Equal(t, "second", accounts[1].AccountName)
	assert.True(t, accounts[1].IsActive)
	f.store.AssertNumberOfCalls(t, "Save", 3)
}

func TestWorkspace_CompleteConnection_FailureChangesNothing(t *testing.T) {
	f := newWorkspaceFixture(t, nil)
	f.conn.On("Finish", mock.Anything, model.PlatformReddit, "bad").Return(nil, model.ErrStateMismatch).Once()

	_, err := f.ws.CompleteConnection(context.Background(), model.PlatformReddit, "bad")

	assert.ErrorIs(t, err, model.ErrStateMismatch)
	assert.Empty(t, f.ws.Accounts())
	f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestWorkspace_Connect_DelegatesToBegin(t *testing.T) {
	f := newWorkspaceFixture(t, nil)
	start := &model.ConnectStart{Platform: model.PlatformLinkedIn, AuthorizationURL: "https://auth"}
	f.conn.On("Begin", mock.Anything, model.PlatformLinkedIn).Return(start, nil).Once()

	got, err := f.ws.Connect(context.Background(), model.PlatformLinkedIn)

	require.NoError(t, err)
	assert.Equal(t, start, got)
}

func TestWorkspace_DisconnectAndReset(t *testing.T) {
	f := newWorkspaceFixture(t, nil)
	a := f.connect(t, model.PlatformTwitter, "tw")
	f.connect(t, model.PlatformReddit, "rd")

	assert.ErrorIs(t, f.ws.Disconnect(context.Background(), "missing"), model.ErrAccountNotFound)
	require.NoError(t, f.ws.Disconnect(context.Background(), a.ID))
	assert.False(t, f.ws.ConnectedPlatforms()[model.PlatformTwitter])
	assert.Len(t, f.ws.Accounts(), 1)

	assert.Equal(t, 1, f.ws.ResetConnections(context.Background()))
	assert.Empty(t, f.ws.Accounts())
}

func TestWorkspace_PublishNow_NewestFirstAndEmitsEvent(t *testing.T) {
	f := newWorkspaceFixture(t, nil)
	f.connect(t, model.PlatformReddit, "rd")

	first, res := f.ws.PublishNow(context.Background(), model.PostInput{Content: "one", Targets: []model.PlatformID{model.PlatformReddit}})
	assert.True(t, res.Success)
	assert.Equal(t, model.PostStatusPublished, first.Status)
	second, _ := f.ws.PublishNow(context.Background(), model.PostInput{Content: "two", Targets: []model.PlatformID{model.PlatformTwitter}})
	assert.Equal(t, model.PostStatusFailed, second.Status)

	posts := f.ws.Posts()
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)
	f.sink.AssertCalled(t, "PublishPostEvent", mock.Anything, mock.MatchedBy(func(e *model.PostEvent) bool {
		return e.Type == model.PostEventPublished && e.PostID == first.ID && e.Success
	}))
}

func TestWorkspace_Queue(t *testing.T) {
	f := newWorkspaceFixture(t, nil)

	post := f.ws.Queue(context.Background(), model.PostInput{Content: "later", Targets: []model.PlatformID{model.PlatformTikTok}})

	assert.Equal(t, model.PostStatusQueued, post.Status)
	assert.Empty(t, post.Attempts)
	assert.Equal(t, fixedNow, post.CreatedAt)
	f.sink.AssertCalled(t, "PublishPostEvent", mock.Anything, mock.MatchedBy(func(e *model.PostEvent) bool {
		return e.Type == model.PostEventQueued && e.PostID == post.ID
	}))
}

func TestWorkspace_Retry(t *testing.T) {
	f := newWorkspaceFixture(t, nil)
	post, res := f.ws.PublishNow(context.Background(), model.PostInput{Content: "hi", Targets: []model.PlatformID{model.PlatformPinterest}})
	require.False(t, res.Success)

	_, _, err := f.ws.Retry(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrPostNotFound)

	f.connect(t, model.PlatformPinterest, "pin")
	retried, res, err := f.ws.Retry(context.Background(), post.ID)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, model.PostStatusPublished, retried.Status)
	stored, err := f.ws.Post(post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPublished, stored.Status)
	require.Len(t, stored.Attempts, 1)
	assert.Equal(t, model.AttemptSuccess, stored.Attempts[0].Status)
}

// gatedDelivery blocks until released so a retry can be observed in flight.
type gatedDelivery struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (d *gatedDelivery) Deliver(ctx context.Context, platform model.PlatformID, content string) error {
	d.once.Do(func() { close(d.started) })
	<-d.release
	return nil
}

func TestWorkspace_Retry_RejectsConcurrentRetryOfSamePost(t *testing.T) {
	delivery := &gatedDelivery{started: make(chan struct{}), release: make(chan struct{})}
	f := newWorkspaceFixture(t, usecase.NewPublishEngine(delivery))
	post, _ := f.ws.PublishNow(context.Background(), model.PostInput{Content: "x", Targets: []model.PlatformID{model.PlatformSnapchat}})
	f.connect(t, model.PlatformSnapchat, "snap")

	done := make(chan error, 1)
	go func() {
		_, _, err := f.ws.Retry(context.Background(), post.ID)
		done <- err
	}()
	<-delivery.started

	_, _, err := f.ws.Retry(context.Background(), post.ID)
	assert.ErrorIs(t, err, model.ErrPostBusy)

	close(delivery.release)
	assert.NoError(t, <-done)
}

func TestWorkspace_SaveFailureKeepsMemoryState(t *testing.T) {
	conn := new(MockConnection)
	store := new(MockSnapshot)
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("read-only")).Once()
	ws := usecase.NewWorkspace(conn, newEngine(), store)

	post := ws.Queue(context.Background(), model.PostInput{Content: "kept"})

	got, err := ws.Post(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Content)
}

func TestWorkspace_ReturnedPostsAreCopies(t *testing.T) {
	f := newWorkspaceFixture(t, nil)
	post := f.ws.Queue(context.Background(), model.PostInput{Content: "orig", Targets: []model.PlatformID{model.PlatformReddit}})

	post.Targets[0] = model.PlatformTwitter
	listed := f.ws.Posts()
	listed[0].Content = "changed"

	stored, err := f.ws.Post(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "orig", stored.Content)
	assert.Equal(t, model.PlatformReddit, stored.Targets[0])
}
