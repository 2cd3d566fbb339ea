package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/repository"
	"github.com/templui/tasktracker/internal/tracker"
)

var ErrAuthInProgress = errors.New("sign-in or sign-out already in progress")

type AuthState string

const (
	AuthLoading         AuthState = "loading"
	AuthUnauthenticated AuthState = "unauthenticated"
	AuthAuthenticated   AuthState = "authenticated"
	AuthAuthenticating  AuthState = "authenticating"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

var providerNames = map[string]string{
	ProviderGoogle: "Google User",
	ProviderGitHub: "GitHub User",
}

func ValidProvider(provider string) bool {
	_, ok := providerNames[provider]
	return ok
}

// IdentityProvider authenticates a user with an external provider.
type IdentityProvider interface {
	Authenticate(ctx context.Context, provider string) (*model.User, error)
	Revoke(ctx context.Context, user *model.User) error
}

// MockIdentityProvider fabricates users after a short delay. No network is involved.
type MockIdentityProvider struct {
	SignInDelay  time.Duration
	SignOutDelay time.Duration
	Now          func() time.Time
}

func NewMockIdentityProvider(signInDelay, signOutDelay time.Duration) *MockIdentityProvider {
	return &MockIdentityProvider{
		SignInDelay:  signInDelay,
		SignOutDelay: signOutDelay,
		Now:          time.Now,
	}
}

func (p *MockIdentityProvider) Authenticate(ctx context.Context, provider string) (*model.User, error) {
	name, ok := providerNames[provider]
	if !ok {
		return nil, &tracker.ValidationError{Field: "provider", Err: fmt.Errorf("unsupported provider %q", provider)}
	}

	err := sleep(ctx, p.SignInDelay)
	if err != nil {
		return nil, err
	}

	return &model.User{
		ID:    fmt.Sprintf("%s_%d", provider, p.Now().UnixMilli()),
		Name:  name,
		Email: "user@" + provider + ".com",
		Image: "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random",
	}, nil
}

func (p *MockIdentityProvider) Revoke(ctx context.Context, _ *model.User) error {
	return sleep(ctx, p.SignOutDelay)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// AuthHolder is the sign-in state of one browser profile.
// It starts in AuthLoading and resolves on the first Init.
type AuthHolder struct {
	profileID string
	repo      repository.LocalStorageRepository
	idp       IdentityProvider

	initOnce sync.Once
	mu       sync.Mutex
	state    AuthState
	user     *model.User
}

func newAuthHolder(profileID string, repo repository.LocalStorageRepository, idp IdentityProvider) *AuthHolder {
	return &AuthHolder{
		profileID: profileID,
		repo:      repo,
		idp:       idp,
		state:     AuthLoading,
	}
}

// Init reads the persisted user once. Unreadable data counts as signed out.
func (h *AuthHolder) Init(ctx context.Context) {
	h.initOnce.Do(func() {
		user := h.loadUser()

		h.mu.Lock()
		defer h.mu.Unlock()
		if user != nil {
			h.state, h.user = AuthAuthenticated, user
		} else {
			h.state, h.user = AuthUnauthenticated, nil
		}
	})
}

func (h *AuthHolder) loadUser() *model.User {
	value, err := h.repo.Item(h.profileID, authStorageKey)
	if errors.Is(err, repository.ErrItemNotFound) {
		return nil
	}
	if err != nil {
		slog.Error("failed to load auth state", "error", err, "profile_id", h.profileID)
		return nil
	}

	var user model.User
	err = json.Unmarshal([]byte(value), &user)
	if err != nil || user.ID == "" {
		slog.Warn("stored auth state unreadable", "error", err, "profile_id", h.profileID)
		return nil
	}
	return &user
}

func (h *AuthHolder) State() (AuthState, *model.User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, h.user
}

// begin moves to AuthAuthenticating and returns the state to restore.
func (h *AuthHolder) begin() (AuthState, *model.User, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == AuthAuthenticating {
		return "", nil, ErrAuthInProgress
	}
	prevState, prevUser := h.state, h.user
	h.state = AuthAuthenticating
	return prevState, prevUser, nil
}

func (h *AuthHolder) set(state AuthState, user *model.User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state, h.user = state, user
}

// SignIn authenticates with provider and persists the user.
// On any failure the holder ends up signed out, in memory and in storage.
// Cancelling ctx does not abort a transition that has started.
func (h *AuthHolder) SignIn(ctx context.Context, provider string) (*model.User, error) {
	ctx = context.WithoutCancel(ctx)
	h.Init(ctx)

	if !ValidProvider(provider) {
		return nil, &tracker.ValidationError{Field: "provider", Err: fmt.Errorf("unsupported provider %q", provider)}
	}

	_, _, err := h.begin()
	if err != nil {
		return nil, err
	}

	user, err := h.idp.Authenticate(ctx, provider)
	if err != nil {
		h.forget()
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	data, err := json.Marshal(user)
	if err == nil {
		err = h.repo.SetItem(h.profileID, authStorageKey, string(data))
	}
	if err != nil {
		h.forget()
		return nil, fmt.Errorf("failed to persist user: %w", err)
	}

	h.set(AuthAuthenticated, user)
	slog.Info("signed in", "profile_id", h.profileID, "user_id", user.ID, "provider", provider)
	return user, nil
}

// forget drops any persisted user so a restart resolves to AuthUnauthenticated too.
func (h *AuthHolder) forget() {
	err := h.repo.RemoveItem(h.profileID, authStorageKey)
	if err != nil {
		slog.Error("failed to clear auth state", "error", err, "profile_id", h.profileID)
	}
	h.set(AuthUnauthenticated, nil)
}

// SignOut forgets the persisted user. On failure the previous state is restored.
// Cancelling ctx does not abort a transition that has started.
func (h *AuthHolder) SignOut(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	h.Init(ctx)

	prevState, prevUser, err := h.begin()
	if err != nil {
		return err
	}

	err = h.idp.Revoke(ctx, prevUser)
	if err == nil {
		err = h.repo.RemoveItem(h.profileID, authStorageKey)
	}
	if err != nil {
		h.set(prevState, prevUser)
		return fmt.Errorf("failed to sign out: %w", err)
	}

	h.set(AuthUnauthenticated, nil)
	slog.Info("signed out", "profile_id", h.profileID)
	return nil
}

// AuthService owns one AuthHolder per browser profile.
type AuthService struct {
	repo repository.LocalStorageRepository
	idp  IdentityProvider

	mu      sync.Mutex
	holders map[string]*AuthHolder
}

func NewAuthService(repo repository.LocalStorageRepository, idp IdentityProvider) *AuthService {
	return &AuthService{
		repo:    repo,
		idp:     idp,
		holders: make(map[string]*AuthHolder),
	}
}

// Holder returns the profile's holder, creating it in AuthLoading.
func (s *AuthService) Holder(profileID string) *AuthHolder {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.holders[profileID]
	if !ok {
		h = newAuthHolder(profileID, s.repo, s.idp)
		s.holders[profileID] = h
	}
	return h
}

// State resolves and returns the profile's auth state.
func (s *AuthService) State(ctx context.Context, profileID string) (AuthState, *model.User) {
	h := s.Holder(profileID)
	h.Init(ctx)
	return h.State()
}

func (s *AuthService) SignIn(ctx context.Context, profileID, provider string) (*model.User, error) {
	return s.Holder(profileID).SignIn(ctx, provider)
}

func (s *AuthService) SignOut(ctx context.Context, profileID string) error {
	return s.Holder(profileID).SignOut(ctx)
}

// Namespace picks the signed-in user's snapshot, or the guest one.
func (s *AuthService) Namespace(ctx context.Context, profileID string) Namespace {
	_, user := s.State(ctx, profileID)
	ns := Namespace{ProfileID: profileID}
	if user != nil {
		ns.UserID = user.ID
	}
	return ns
}
