package usecase_test

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"omnipost/domain/model"
	"omnipost/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testCreds = model.ClientCredentials{ClientID: "cid", ClientSecret: "secret"}

type connectionFixture struct {
	creds   *MockCredential
	client  *MockOAuthClient
	browser *MockBrowser
	clock   *fakeClock
	uc      usecase.IConnectionUsecase
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequentialRandom returns predictable values so tests can build matching callbacks.
func sequentialRandom() func(int) (string, error) {
	var mu sync.Mutex
	n := 0
	return func(length int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		s := fmt.Sprintf("r%d-", n)
		return s + strings.Repeat("x", length-len(s)), nil
	}
}

func newConnectionFixture(t *testing.T) *connectionFixture {
	t.Helper()
	f := &connectionFixture{
		creds:   new(MockCredential),
		client:  new(MockOAuthClient),
		browser: new(MockBrowser),
		clock:   &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.browser.On("Open", mock.Anything).Maybe()
	f.uc = usecase.NewConnectionUsecase(f.creds, f.client, f.browser, 10*time.Minute,
		usecase.WithConnectionClock(f.clock.Now),
		usecase.WithRandomSource(sequentialRandom()),
	)
	return f
}

func (f *connectionFixture) expectBegin(provider model.OAuthProvider, pkce bool) {
	f.creds.On("CredentialsFor", provider).Return(testCreds, nil)
	f.client.On("RequiresPKCE", provider).Return(pkce)
	f.client.On("AuthorizationURL", provider, testCreds, mock.Anything, mock.Anything).
		Return("https://auth.example/"+string(provider), nil)
}

func callbackFor(state, code string) string {
	q := url.Values{}
	if state != "" {
		q.Set("state", state)
	}
	if code != "" {
		q.Set("code", code)
	}
	return "http://localhost:8765/callback?" + q.Encode()
}

func TestConnection_Begin_Blocked(t *testing.T) {
	tests := []struct {
		platform model.PlatformID
		contains string
	}{
		{model.PlatformInstagram, "Facebook"},
		{model.PlatformTumblr, "OAuth1"},
		{model.PlatformDiscord, "webhook"},
		{model.PlatformID("myspace"), "unsupported platform"},
	}
	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			f := newConnectionFixture(t)
			start, err := f.uc.Begin(context.Background(), tt.platform)
			require.Error(t, err)
			assert.Nil(t, start)
			assert.ErrorIs(t, err, model.ErrUnsupported)
			assert.Contains(t, err.Error(), tt.contains)

			_, pending := f.uc.Pending(tt.platform)
			assert.False(t, pending)
			f.creds.AssertNotCalled(t, "CredentialsFor", mock.Anything)
			f.browser.AssertNotCalled(t, "Open", mock.Anything)
		})
	}
}

func TestConnection_Begin_MissingCredentials(t *testing.T) {
	f := newConnectionFixture(t)
	f.creds.On("CredentialsFor", model.ProviderTikTok).
		Return(model.ClientCredentials{}, fmt.Errorf("%w for tiktok. Update /tmp/x.json", model.ErrMissingCredentials))

	_, err := f.uc.Begin(context.Background(), model.PlatformTikTok)
	assert.ErrorIs(t, err, model.ErrMissingCredentials)
	_, pending := f.uc.Pending(model.PlatformTikTok)
	assert.False(t, pending)
}

func TestConnection_Begin_Twitter_UsesPKCE(t *testing.T) {
	f := newConnectionFixture(t)
	f.expectBegin(model.ProviderTwitter, true)

	start, err := f.uc.Begin(context.Background(), model.PlatformTwitter)
	require.NoError(t, err)
	assert.True(t, start.RequiresCallbackPaste)
	assert.Equal(t, "https://auth.example/twitter", start.AuthorizationURL)
	assert.Contains(t, start.Message, "Twitter")

	session, ok := f.uc.Pending(model.PlatformTwitter)
	require.True(t, ok)
	assert.Len(t, session.State, 32)
	assert.Len(t, session.CodeVerifier, 64)
	assert.Equal(t, model.ProviderTwitter, session.Provider)

	call := f.client.Calls[len(f.client.Calls)-1]
	require.Equal(t, "AuthorizationURL", call.Method)
	assert.Equal(t, session.State, call.Arguments.String(2))
	assert.NotEmpty(t, call.Arguments.String(3))
	assert.NotEqual(t, session.CodeVerifier, call.Arguments.String(3))
	f.browser.AssertCalled(t, "Open", "https://auth.example/twitter")
}

func TestConnection_Begin_YouTubeRoutesToGoogleWithoutVerifier(t *testing.T) {
	f := newConnectionFixture(t)
	f.expectBegin(model.ProviderGoogle, false)

	_, err := f.uc.Begin(context.Background(), model.PlatformYouTube)
	require.NoError(t, err)

	session, ok := f.uc.Pending(model.PlatformYouTube)
	require.True(t, ok)
	assert.Empty(t, session.CodeVerifier)
	f.client.AssertCalled(t, "AuthorizationURL", model.ProviderGoogle, testCreds, session.State, "")
}

func TestConnection_Begin_ReplacesPendingSession(t *testing.T) {
	f := newConnectionFixture(t)
	f.expectBegin(model.ProviderReddit, false)

	_, err := f.uc.Begin(context.Background(), model.PlatformReddit)
	require.NoError(t, err)
	first, _ := f.uc.Pending(model.PlatformReddit)

	_, err = f.uc.Begin(context.Background(), model.PlatformReddit)
	require.NoError(t, err)
	second, _ := f.uc.Pending(model.PlatformReddit)
	assert.NotEqual(t, first.State, second.State)

	_, err = f.uc.Finish(context.Background(), model.PlatformReddit, callbackFor(first.State, "code"))
	assert.ErrorIs(t, err, model.ErrStateMismatch)
}

func TestConnection_Finish_Success(t *testing.T) {
	f := newConnectionFixture(t)
	f.expectBegin(model.ProviderTwitter, true)
	_, err := f.uc.Begin(context.Background(), model.PlatformTwitter)
	require.NoError(t, err)
	session, _ := f.uc.Pending(model.PlatformTwitter)

	f.client.On("Exchange", mock.Anything, model.ProviderTwitter, testCreds, "the-code", session.CodeVerifier).Return("tok", nil).Once()
	f.client.On("FetchProfile", mock.Anything, model.ProviderTwitter, "tok").
		Return(&model.ProviderIdentity{AccountID: "42", AccountName: "gopher"}, nil).Once()

	profile, err := f.uc.Finish(context.Background(), model.PlatformTwitter, callbackFor(session.State, "the-code"))
	require.NoError(t, err)
	assert.Equal(t, &model.ConnectedProfile{AccountID: "42", AccountName: "gopher", Platform: model.PlatformTwitter}, profile)

	_, pending := f.uc.Pending(model.PlatformTwitter)
	assert.False(t, pending, "session must be consumed on success")

	_, err = f.uc.Finish(context.Background(), model.PlatformTwitter, callbackFor(session.State, "the-code"))
	assert.ErrorIs(t, err, model.ErrNoPendingSession)
	f.client.AssertExpectations(t)
}

func TestConnection_Finish_ProtocolFailuresKeepSession(t *testing.T) {
	f := newConnectionFixture(t)
	f.expectBegin(model.ProviderLinkedIn, false)
	_, err := f.uc.Begin(context.Background(), model.PlatformLinkedIn)
	require.NoError(t, err)
	session, _ := f.uc.Pending(model.PlatformLinkedIn)

	tests := []struct {
		name string
		url  string
		want error
	}{
		{"empty", "   ", model.ErrInvalidCallback},
		{"unparseable", "http://[::1", model.ErrInvalidCallback},
		{"plain words", "not a url", model.ErrInvalidCallback},
		{"single word", "hello", model.ErrInvalidCallback},
		{"bad query", "http://localhost:8765/callback?state=%zz", model.ErrInvalidCallback},
		{"missing state", callbackFor("", "code"), model.ErrStateMismatch},
		{"wrong state", callbackFor("forged", "code"), model.ErrStateMismatch},
		{"missing code", callbackFor(session.State, ""), model.ErrMissingCode},
		{"provider denied", "http://localhost:8765/callback?state=" + session.State + "&error=access_denied", model.ErrMissingCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Finish(context.Background(), model.PlatformLinkedIn, tt.url)
			assert.ErrorIs(t, err, tt.want)
			_, pending := f.uc.Pending(model.PlatformLinkedIn)
			assert.True(t, pending)
		})
	}

	_, err = f.uc.Finish(context.Background(), model.PlatformLinkedIn, "http://localhost:8765/callback?state="+session.State+"&error=access_denied")
	assert.Contains(t, err.Error(), "access_denied")
	f.client.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConnection_Finish_NoPendingSession(t *testing.T) {
	f := newConnectionFixture(t)
	_, err := f.uc.Finish(context.Background(), model.PlatformPinterest, callbackFor("s", "c"))
	assert.ErrorIs(t, err, model.ErrNoPendingSession)
}

func TestConnection_Finish_InvalidCallbackCheckedBeforeSession(t *testing.T) {
	f := newConnectionFixture(t)
	_, err := f.uc.Finish(context.Background(), model.PlatformPinterest, "")
	assert.ErrorIs(t, err, model.ErrInvalidCallback)
}

func TestConnection_Finish_TransientFailureAllowsRetry(t *testing.T) {
	f := newConnectionFixture(t)
	f.expectBegin(model.ProviderSnapchat, false)
	_, err := f.uc.Begin(context.Background(), model.PlatformSnapchat)
	require.NoError(t, err)
	session, _ := f.uc.Pending(model.PlatformSnapchat)
	cb := callbackFor(session.State, "code")

	f.client.On("Exchange", mock.Anything, model.ProviderSnapchat, testCreds, "code", "").
		Return("", fmt.Errorf("%w: 503", model.ErrTokenExchangeFailed)).Once()
	_, err = f.uc.Finish(context.Background(), model.PlatformSnapchat, cb)
	assert.ErrorIs(t, err, model.ErrTokenExchangeFailed)
	assert.Equal(t, model.CategoryTransient, model.Classify(err))

	f.client.On("Exchange", mock.Anything, model.ProviderSnapchat, testCreds, "code", "").Return("tok", nil).Once()
	f.client.On("FetchProfile", mock.Anything, model.ProviderSnapchat, "tok").
		Return(nil, fmt.Errorf("%w: 401", model.ErrProfileFetchFailed)).Once()
	_, err = f.uc.Finish(context.Background(), model.PlatformSnapchat, cb)
	assert.ErrorIs(t, err, model.ErrProfileFetchFailed)
	_, pending := f.uc.Pending(model.PlatformSnapchat)
	assert.True(t, pending)

	f.client.On("Exchange", mock.Anything, model.ProviderSnapchat, testCreds, "code", "").Return("tok", nil).Once()
	f.client.On("FetchProfile", mock.Anything, model.ProviderSnapchat, "tok").
		Return(&model.ProviderIdentity{AccountID: "s1", AccountName: "Snap"}, nil).Once()
	profile, err := f.uc.Finish(context.Background(), model.PlatformSnapchat, cb)
	require.NoError(t, err)
	assert.Equal(t, "Snap", profile.AccountName)
}

func TestConnection_SessionExpires(t *testing.T) {
	f := newConnectionFixture(t)
	f.expectBegin(model.ProviderFacebook, false)
	_, err := f.uc.Begin(context.Background(), model.PlatformFacebook)
	require.NoError(t, err)
	session, _ := f.uc.Pending(model.PlatformFacebook)

	f.clock.Advance(11 * time.Minute)

	_, err = f.uc.Finish(context.Background(), model.PlatformFacebook, callbackFor(session.State, "code"))
	assert.ErrorIs(t, err, model.ErrNoPendingSession)
}

func TestConnection_PlatformsAreIndependent(t *testing.T) {
	f := newConnectionFixture(t)
	f.expectBegin(model.ProviderReddit, false)
	f.expectBegin(model.ProviderPinterest, false)

	var wg sync.WaitGroup
	for _, p := range []model.PlatformID{model.PlatformReddit, model.PlatformPinterest} {
		wg.Add(1)
		go func(p model.PlatformID) {
			defer wg.Done()
			_, err := f.uc.Begin(context.Background(), p)
			assert.NoError(t, err)
		}(p)
	}
	wg.Wait()

	reddit, ok := f.uc.Pending(model.PlatformReddit)
	require.True(t, ok)
	pin, ok := f.uc.Pending(model.PlatformPinterest)
	require.True(t, ok)
	assert.NotEqual(t, reddit.State, pin.State)

	_, err := f.uc.Finish(context.Background(), model.PlatformReddit, callbackFor(pin.State, "code"))
	assert.ErrorIs(t, err, model.ErrStateMismatch)
}

func TestConnection_MetricsObserved(t *testing.T) {
	creds := new(MockCredential)
	client := new(MockOAuthClient)
	browser := new(MockBrowser)
	metrics := new(MockMetrics)
	metrics.On("ObserveConnection", model.PlatformDiscord, usecase.StageBegin, mock.Anything).Once()

	uc := usecase.NewConnectionUsecase(creds, client, browser, time.Minute, usecase.WithConnectionMetrics(metrics))
	_, err := uc.Begin(context.Background(), model.PlatformDiscord)
	require.Error(t, err)
	metrics.AssertExpectations(t)
}

func TestConnection_Begin_StatesAreUnique(t *testing.T) {
	creds := new(MockCredential)
	client := new(MockOAuthClient)
	browser := new(MockBrowser)
	browser.On("Open", mock.Anything).Maybe()
	creds.On("CredentialsFor", model.ProviderTwitter).Return(testCreds, nil)
	client.On("RequiresPKCE", model.ProviderTwitter).Return(true)
	client.On("AuthorizationURL", model.ProviderTwitter, testCreds, mock.Anything, mock.Anything).
		Return("https://auth.example/twitter", nil)
	uc := usecase.NewConnectionUsecase(creds, client, browser, 10*time.Minute)

	const trials = 1000
	seen := make(map[string]struct{}, trials)
	for i := 0; i < trials; i++ {
		_, err := uc.Begin(context.Background(), model.PlatformTwitter)
		require.NoError(t, err)
		session, ok := uc.Pending(model.PlatformTwitter)
		require.True(t, ok)

		require.Len(t, session.State, 32)
		require.Len(t, session.CodeVerifier, 64)
		require.Regexp(t, `^[A-Za-z0-9._~-]+$`, session.State)
		require.Regexp(t, `^[A-Za-z0-9._~-]+$`, session.CodeVerifier)
		_, dup := seen[session.State]
		require.False(t, dup, "state repeated after %d trials", i)
		seen[session.State] = struct{}{}
	}
}
