package http_test

import (
	"context"

	"omnipost/domain/model"
	"omnipost/usecase"

	"github.com/stretchr/testify/mock"
)

type MockWorkspace struct {
	mock.Mock
}

func (m *MockWorkspace) Load(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockWorkspace) ConnectedPlatforms() usecase.ConnectedSet {
	return m.Called().Get(0).(usecase.ConnectedSet)
}

func (m *MockWorkspace) Connect(ctx context.Context, platform model.PlatformID) (*model.ConnectStart, error) {
	args := m.Called(ctx, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectStart), args.Error(1)
}

func (m *MockWorkspace) CompleteConnection(ctx context.Context, platform model.PlatformID, callbackURL string) (*model.ConnectedAccount, error) {
	args := m.Called(ctx, platform, callbackURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectedAccount), args.Error(1)
}

func (m *MockWorkspace) Disconnect(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

func (m *MockWorkspace) ResetConnections(ctx context.Context) int {
	return m.Called(ctx).Int(0)
}

func (m *MockWorkspace) PublishNow(ctx context.Context, input model.PostInput) (*model.PostDraft, model.PublishResult) {
	args := m.Called(ctx, input)
	return args.Get(0).(*model.PostDraft), args.Get(1).(model.PublishResult)
}

func (m *MockWorkspace) Queue(ctx context.Context, input model.PostInput) *model.PostDraft {
	return m.Called(ctx, input).Get(0).(*model.PostDraft)
}

func (m *MockWorkspace) Retry(ctx context.Context, postID string) (*model.PostDraft, model.PublishResult, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, model.PublishResult{}, args.Error(2)
	}
	return args.Get(0).(*model.PostDraft), args.Get(1).(model.PublishResult), args.Error(2)
}

func (m *MockWorkspace) Accounts() []model.ConnectedAccount {
	return m.Called().Get(0).([]model.ConnectedAccount)
}

func (m *MockWorkspace) Posts() []model.PostDraft {
	return m.Called().Get(0).([]model.PostDraft)
}

func (m *MockWorkspace) Post(id string) (*model.PostDraft, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostDraft), args.Error(1)
}

type MockConnections struct {
	mock.Mock
}

func (m *MockConnections) Begin(ctx context.Context, platform model.PlatformID) (*model.ConnectStart, error) {
	args := m.Called(ctx, platform)
	return args.Get(0).(*model.ConnectStart), args.Error(1)
}

func (m *MockConnections) Finish(ctx context.Context, platform model.PlatformID, callbackURL string) (*model.ConnectedProfile, error) {
	args := m.Called(ctx, platform, callbackURL)
	return args.Get(0).(*model.ConnectedProfile), args.Error(1)
}

func (m *MockConnections) Pending(platform model.PlatformID) (*model.PendingOAuthSession, bool) {
	args := m.Called(platform)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*model.PendingOAuthSession), args.Bool(1)
}
