package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "mentor-hub/server/pkg/errors"
)

// ── 未配置 Redis 时的进程内实现（单实例部署） ──

type memoryDraft struct {
	content   string
	expiresAt time.Time
}

// MemoryDraftStore 进程内草稿存储
type MemoryDraftStore struct {
	mu     sync.Mutex
	drafts map[string]memoryDraft
}

// NewMemoryDraftStore 创建进程内草稿存储
func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{drafts: make(map[string]memoryDraft)}
}

func (m *MemoryDraftStore) SaveDraft(_ context.Context, postID, content string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[postID] = memoryDraft{content: content, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *MemoryDraftStore) GetDraft(_ context.Context, postID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[postID]
	if !ok || time.Now().After(d.expiresAt) {
		delete(m.drafts, postID)
		return "", false, nil
	}
	return d.content, true, nil
}

func (m *MemoryDraftStore) DeleteDraft(_ context.Context, postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, postID)
	return nil
}

type memoryLock struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker 进程内互斥锁，语义与 Redis 锁一致：带过期时间、按 token 释放
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]memoryLock
}

// NewMemoryLocker 创建进程内锁
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]memoryLock)}
}

func (m *MemoryLocker) AcquireLock(_ context.Context, key string, ttl time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if l, ok := m.locks[key]; ok && now.Before(l.expiresAt) {
		return nil, pkgerrors.ErrLockNotAcquired
	}

	token := uuid.NewString()
	m.locks[key] = memoryLock{token: token, expiresAt: now.Add(ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if l, ok := m.locks[key]; ok && l.token == token {
				delete(m.locks, key)
			}
		})
	}, nil
}
