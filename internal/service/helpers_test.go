package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/templui/tasktracker/internal/assistant"
	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/repository"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)}
}

// memoryRepository is an in-memory LocalStorageRepository with injectable write failures.
type memoryRepository struct {
	mu        sync.Mutex
	items     map[string]map[string]string
	setErr    error
	removeErr error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{items: make(map[string]map[string]string)}
}

func (r *memoryRepository) Item(profileID, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[profileID][key]
	if !ok {
		return "", repository.ErrItemNotFound
	}
	return v, nil
}

func (r *memoryRepository) SetItem(profileID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	if r.items[profileID] == nil {
		r.items[profileID] = make(map[string]string)
	}
	r.items[profileID][key] = value
	return nil
}

func (r *memoryRepository) RemoveItem(profileID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.removeErr != nil {
		return r.removeErr
	}
	delete(r.items[profileID], key)
	return nil
}

func (r *memoryRepository) Items(profileID string) ([]*model.StorageItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*model.StorageItem
	for k, v := range r.items[profileID] {
		items = append(items, &model.StorageItem{ProfileID: profileID, Key: k, Value: v})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

func (r *memoryRepository) Clear(profileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, profileID)
	return nil
}

// fakeGenerators hands out a GeneratorFunc and records the key and prompts used.
type fakeGenerators struct {
	mu       sync.Mutex
	generate func(ctx context.Context, prompt string) (string, error)
	keys     []string
	prompts  []string
}

func (f *fakeGenerators) ForKey(apiKey string) assistant.Generator {
	f.mu.Lock()
	f.keys = append(f.keys, apiKey)
	f.mu.Unlock()

	return assistant.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		f.mu.Lock()
		f.prompts = append(f.prompts, prompt)
		f.mu.Unlock()
		return f.generate(ctx, prompt)
	})
}

type fakeLister struct {
	listModels func(ctx context.Context, apiKey string) ([]string, error)
}

func (f *fakeLister) ListModels(ctx context.Context, apiKey string) ([]string, error) {
	return f.listModels(ctx, apiKey)
}

type fakeIdentityProvider struct {
	authenticate func(ctx context.Context, provider string) (*model.User, error)
	revoke       func(ctx context.Context, user *model.User) error
}

func (f *fakeIdentityProvider) Authenticate(ctx context.Context, provider string) (*model.User, error) {
	return f.authenticate(ctx, provider)
}

func (f *fakeIdentityProvider) Revoke(ctx context.Context, user *model.User) error {
	return f.revoke(ctx, user)
}
