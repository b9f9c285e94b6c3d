package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"omnipost/domain/model"
	"omnipost/domain/repository"
	"omnipost/infrastructure/logger"
	"omnipost/infrastructure/utils"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
)

const (
	stateLength    = 32
	verifierLength = 64

	StageBegin  = "begin"
	StageFinish = "finish"
)

type IConnectionUsecase interface {
	Begin(ctx context.Context, platform model.PlatformID) (*model.ConnectStart, error)
	Finish(ctx context.Context, platform model.PlatformID, callbackURL string) (*model.ConnectedProfile, error)
	Pending(platform model.PlatformID) (*model.PendingOAuthSession, bool)
}

type connectionUsecase struct {
	credentials repository.ICredential
	client      repository.IOAuthClient
	browser     repository.IBrowser
	metrics     repository.IMetrics

	// mu serializes session lookups and removals so a finish never deletes a session a newer begin replaced.
	mu       sync.Mutex
	sessions *gocache.Cache
	ttl      time.Duration
	now      func() time.Time
	random   func(n int) (string, error)
}

type ConnectionOption func(*connectionUsecase)

func WithConnectionClock(now func() time.Time) ConnectionOption {
	return func(u *connectionUsecase) { u.now = now }
}

func WithRandomSource(random func(n int) (string, error)) ConnectionOption {
	return func(u *connectionUsecase) { u.random = random }
}

func WithConnectionMetrics(m repository.IMetrics) ConnectionOption {
	return func(u *connectionUsecase) { u.metrics = m }
}

func NewConnectionUsecase(credentials repository.ICredential, client repository.IOAuthClient, browser repository.IBrowser, sessionTTL time.Duration, opts ...ConnectionOption) IConnectionUsecase {
	u := &connectionUsecase{
		credentials: credentials,
		client:      client,
		browser:     browser,
		sessions:    gocache.New(sessionTTL, 2*sessionTTL),
		ttl:         sessionTTL,
		now:         time.Now,
		random:      utils.RandomURLSafe,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *connectionUsecase) observe(platform model.PlatformID, stage string, err error) {
	if u.metrics != nil {
		u.metrics.ObserveConnection(platform, stage, err)
	}
}

// Begin starts an authorization for platform and replaces any session already pending for it.
func (u *connectionUsecase) Begin(ctx context.Context, platform model.PlatformID) (start *model.ConnectStart, err error) {
	defer func() { u.observe(platform, StageBegin, err) }()

	route := model.Route(platform)
	if route.Blocked() {
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupported, route.BlockReason)
	}
	creds, err := u.credentials.CredentialsFor(route.Provider)
	if err != nil {
		return nil, err
	}

	state, err := u.random(stateLength)
	if err != nil {
		return nil, err
	}
	session := &model.PendingOAuthSession{
		Platform:  platform,
		Provider:  route.Provider,
		State:     state,
		CreatedAt: u.now(),
	}
	var challenge string
	if u.client.RequiresPKCE(route.Provider) {
		if session.CodeVerifier, err = u.random(verifierLength); err != nil {
			return nil, err
		}
		challenge = oauth2.S256ChallengeFromVerifier(session.CodeVerifier)
	}

	authURL, err := u.client.AuthorizationURL(route.Provider, creds, state, challenge)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.sessions.Set(string(platform), session, u.ttl)
	u.mu.Unlock()

	logger.GetLogger().WithField("platform", platform).WithField("provider", route.Provider).Info("OAuth connection started")
	u.browser.Open(authURL)

	return &model.ConnectStart{
		Platform:              platform,
		Message:               fmt.Sprintf("Browser opened for %s OAuth. After consent, copy the redirected URL and paste it back here.", platform.Title()),
		AuthorizationURL:      authURL,
		RequiresCallbackPaste: true,
	}, nil
}

func (u *connectionUsecase) Pending(platform model.PlatformID) (*model.PendingOAuthSession, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lookup(platform)
}

func (u *connectionUsecase) lookup(platform model.PlatformID) (*model.PendingOAuthSession, bool) {
	v, ok := u.sessions.Get(string(platform))
	if !ok {
		return nil, false
	}
	session := v.(*model.PendingOAuthSession)
	if u.ttl > 0 && u.now().Sub(session.CreatedAt) > u.ttl {
		u.sessions.Delete(string(platform))
		return nil, false
	}
	return session, true
}

// Finish completes the authorization from the URL the provider redirected to.
// Every failure leaves the pending session in place so the user can paste again.
func (u *connectionUsecase) Finish(ctx context.Context, platform model.PlatformID, callbackURL string) (profile *model.ConnectedProfile, err error) {
	defer func() { u.observe(platform, StageFinish, err) }()
	lg := logger.GetLogger().WithField("platform", platform)

	params, err := parseCallback(callbackURL)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	session, ok := u.lookup(platform)
	u.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w for %s", model.ErrNoPendingSession, platform)
	}

	if returned := params.Get("state"); returned == "" || returned != session.State {
		lg.Warn("OAuth callback state did not match the pending session")
		return nil, model.ErrStateMismatch
	}
	code := params.Get("code")
	if code == "" {
		if reason := params.Get("error"); reason != "" {
			return nil, fmt.Errorf("%w: provider returned %s", model.ErrMissingCode, reason)
		}
		return nil, model.ErrMissingCode
	}

	creds, err := u.credentials.CredentialsFor(session.Provider)
	if err != nil {
		return nil, err
	}
	token, err := u.client.Exchange(ctx, session.Provider, creds, code, session.CodeVerifier)
	if err != nil {
		lg.WithField("error", err).Error("Token exchange failed")
		return nil, err
	}
	identity, err := u.client.FetchProfile(ctx, session.Provider, token)
	if err != nil {
		lg.WithField("error", err).Error("Profile lookup failed")
		return nil, err
	}

	u.mu.Lock()
	if current, ok := u.sessions.Get(string(platform)); ok && current.(*model.PendingOAuthSession).State == session.State {
		u.sessions.Delete(string(platform))
	}
	u.mu.Unlock()

	lg.WithField("account", identity.AccountName).Info("OAuth connection finished")
	return &model.ConnectedProfile{
		AccountID:   identity.AccountID,
		AccountName: identity.AccountName,
		Platform:    platform,
	}, nil
}

func parseCallback(raw string) (url.Values, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, model.ErrInvalidCallback
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidCallback, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not a URL", model.ErrInvalidCallback, raw)
	}
	params, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidCallback, err)
	}
	return params, nil
}
