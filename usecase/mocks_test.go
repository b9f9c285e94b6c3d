package usecase_test

import (
	"context"
	"sync"

	"omnipost/domain/model"

	"github.com/stretchr/testify/mock"
)

// Mock implementations

type MockCredential struct {
	mock.Mock
}

func (m *MockCredential) Load() (map[model.OAuthProvider]model.ClientCredentials, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.OAuthProvider]model.ClientCredentials), args.Error(1)
}

func (m *MockCredential) CredentialsFor(provider model.OAuthProvider) (model.ClientCredentials, error) {
	args := m.Called(provider)
	return args.Get(0).(model.ClientCredentials), args.Error(1)
}

func (m *MockCredential) EnsureTemplateExists() error {
	return m.Called().Error(0)
}

func (m *MockCredential) Path() string {
	return m.Called().String(0)
}

type MockOAuthClient struct {
	mock.Mock
}

func (m *MockOAuthClient) RequiresPKCE(provider model.OAuthProvider) bool {
	return m.Called(provider).Bool(0)
}

func (m *MockOAuthClient) AuthorizationURL(provider model.OAuthProvider, creds model.ClientCredentials, state, codeChallenge string) (string, error) {
	args := m.Called(provider, creds, state, codeChallenge)
	return args.String(0), args.Error(1)
}

func (m *MockOAuthClient) Exchange(ctx context.Context, provider model.OAuthProvider, creds model.ClientCredentials, code, codeVerifier string) (string, error) {
	args := m.Called(ctx, provider, creds, code, codeVerifier)
	return args.String(0), args.Error(1)
}

func (m *MockOAuthClient) FetchProfile(ctx context.Context, provider model.OAuthProvider, accessToken string) (*model.ProviderIdentity, error) {
	args := m.Called(ctx, provider, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProviderIdentity), args.Error(1)
}

type MockBrowser struct {
	mock.Mock
}

func (m *MockBrowser) Open(url string) {
	m.Called(url)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) ObserveConnection(platform model.PlatformID, stage string, err error) {
	m.Called(platform, stage, err)
}

func (m *MockMetrics) ObserveAttempts(attempts []model.PostAttempt) {
	m.Called(attempts)
}

type MockSnapshot struct {
	mock.Mock
}

func (m *MockSnapshot) Load(ctx context.Context) (*model.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Snapshot), args.Error(1)
}

func (m *MockSnapshot) Save(ctx context.Context, snapshot *model.Snapshot) error {
	return m.Called(ctx, snapshot).Error(0)
}

type MockPostEventPublisher struct {
	mock.Mock
}

func (m *MockPostEventPublisher) PublishPostEvent(ctx context.Context, event *model.PostEvent) error {
	return m.Called(ctx, event).Error(0)
}

// recordingDelivery fails for the configured platforms and remembers what it was asked to send.
type recordingDelivery struct {
	mu      sync.Mutex
	fail    map[model.PlatformID]bool
	calls   []model.PlatformID
	content map[model.PlatformID]string
}

func newRecordingDelivery(failing ...model.PlatformID) *recordingDelivery {
	d := &recordingDelivery{fail: map[model.PlatformID]bool{}, content: map[model.PlatformID]string{}}
	for _, p := range failing {
		d.fail[p] = true
	}
	return d
}

func (d *recordingDelivery) Deliver(ctx context.Context, platform model.PlatformID, content string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, platform)
	d.content[platform] = content
	if d.fail[platform] {
		return errDeliveryRejected
	}
	return nil
}

func (d *recordingDelivery) setFailing(p model.PlatformID, fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[p] = fail
}

func (d *recordingDelivery) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}
