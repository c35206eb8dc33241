// Package livepreview 实现主编辑器与实时预览编辑器之间的内容回写。
//
// 状态机：closed → open → closing → closed。
//   - open 期间预览端的每次修改进入 pending，尾部防抖后回写主编辑器；
//   - 两次回写间隔不小于 MinInterval，另有 ForceInterval 周期强制回写；
//   - 进入 closing 后不再触发任何防抖/周期回写，Close 完成最终回写后才执行卸载回调。
package livepreview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotOpen     = errors.New("预览未打开")
	ErrAlreadyOpen = errors.New("预览已打开")
)

// State 预览状态
type State int

const (
	StateClosed State = iota
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// Source 预览端编辑器，关闭时从这里拉取最终内容；不可用时返回错误
type Source interface {
	Content(ctx context.Context) (string, error)
}

// Sink 主编辑器内容的写入端
type Sink interface {
	WriteBack(ctx context.Context, content string) error
}

// Options 同步参数
type Options struct {
	Debounce      time.Duration
	MinInterval   time.Duration
	ForceInterval time.Duration
	WriteTimeout  time.Duration
	Clock         Clock
	Logger        *zap.Logger
	// OnUnmount 最终回写完成后调用
	OnUnmount func()
}

// Syncer 持有预览期间唯一的"当前内容"，单向回写到 Sink
type Syncer struct {
	opts   Options
	source Source
	sink   Sink

	mu           sync.Mutex
	state        State
	pending      string
	pendingSeq   uint64
	writtenSeq   uint64
	lastWrite    time.Time
	lastActivity time.Time
	debounce     Timer
	force        Timer
}

// NewSyncer 创建同步器，source 可为 nil（关闭时直接使用 pending）
func NewSyncer(source Source, sink Sink, opts Options) *Syncer {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &Syncer{opts: opts, source: source, sink: sink}
}

// State 当前状态
func (s *Syncer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastActivity 最近一次打开或推送的时间
func (s *Syncer) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Open 以主编辑器当前内容作为起点进入 open
func (s *Syncer) Open(initial string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateClosed {
		return ErrAlreadyOpen
	}
	s.state = StateOpen
	s.pending = initial
	s.pendingSeq = 0
	s.writtenSeq = 0
	s.lastActivity = s.opts.Clock.Now()
	s.force = s.opts.Clock.AfterFunc(s.opts.ForceInterval, s.onForce)
	return nil
}

// Push 预览端内容变化，重置尾部防抖
func (s *Syncer) Push(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return ErrNotOpen
	}
	s.pending = content
	s.pendingSeq++
	s.lastActivity = s.opts.Clock.Now()

	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = s.opts.Clock.AfterFunc(s.opts.Debounce, s.onDebounce)
	return nil
}

func (s *Syncer) onDebounce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

func (s *Syncer) onForce() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return
	}
	s.flushLocked()
	s.force = s.opts.Clock.AfterFunc(s.opts.ForceInterval, s.onForce)
}

// flushLocked 调用方需持有 mu
func (s *Syncer) flushLocked() {
	if s.state != StateOpen || s.pendingSeq <= s.writtenSeq {
		return
	}

	now := s.opts.Clock.Now()
	if !s.lastWrite.IsZero() {
		if wait := s.opts.MinInterval - now.Sub(s.lastWrite); wait > 0 {
			// 限流：推迟到间隔满足后再试
			if s.debounce != nil {
				s.debounce.Stop()
			}
			s.debounce = s.opts.Clock.AfterFunc(wait, s.onDebounce)
			return
		}
	}

	content, seq := s.pending, s.pendingSeq
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.WriteTimeout)
	defer cancel()

	if err := s.sink.WriteBack(ctx, content); err != nil {
		s.opts.Logger.Warn("预览内容回写失败", zap.Error(err))
		return
	}
	s.writtenSeq = seq
	s.lastWrite = now
}

// Close 停止全部定时回写，拉取预览端最终内容并同步写回，然后进入 closed
func (s *Syncer) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return ErrNotOpen
	}
	s.state = StateClosing
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	if s.force != nil {
		s.force.Stop()
		s.force = nil
	}
	fallback := s.pending
	lastWrite := s.lastWrite
	s.mu.Unlock()

	content := fallback
	if s.source != nil {
		live, err := s.source.Content(ctx)
		if err != nil {
			s.opts.Logger.Warn("预览编辑器不可用，使用最近的待同步内容", zap.Error(err))
		} else {
			content = live
		}
	}

	var writeErr error
	if !lastWrite.IsZero() {
		writeErr = s.opts.Clock.Sleep(ctx, s.opts.MinInterval-s.opts.Clock.Now().Sub(lastWrite))
	}
	if writeErr == nil {
		writeErr = s.sink.WriteBack(ctx, content)
	}

	s.mu.Lock()
	if writeErr == nil {
		s.lastWrite = s.opts.Clock.Now()
		s.writtenSeq = s.pendingSeq
	}
	s.state = StateClosed
	s.mu.Unlock()

	if s.opts.OnUnmount != nil {
		s.opts.OnUnmount()
	}

	if writeErr != nil {
		return fmt.Errorf("最终回写失败: %w", writeErr)
	}
	return nil
}
