package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/KotFed0t/stock_screener/config"
	"github.com/KotFed0t/stock_screener/internal/model"
	"github.com/KotFed0t/stock_screener/internal/screenerEngine"
	"github.com/KotFed0t/stock_screener/utils"
)

// ChatSession is the screener state of one chat.
type ChatSession struct {
	Engine *screenerEngine.Engine
	Page   int

	mu       sync.Mutex
	lastSeen time.Time
}

// MemorySession keeps one engine per chat, created from the shared baseline on first use.
type MemorySession struct {
	mu         sync.Mutex
	baseline   *model.Table
	sessions   map[int64]*ChatSession
	expiration time.Duration
	now        func() time.Time
}

func NewMemorySession(cfg *config.Config) *MemorySession {
	return &MemorySession{
		sessions:   make(map[int64]*ChatSession),
		expiration: cfg.SessionExpiration,
		now:        time.Now,
	}
}

// SetBaseline publishes freshly acquired data. Existing chats keep their engines until evicted.
func (s *MemorySession) SetBaseline(table model.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseline = &table
}

// WithSession runs fn holding the chat's session lock, so calls for one chat never interleave.
func (s *MemorySession) WithSession(ctx context.Context, chatID int64, fn func(cs *ChatSession) error) error {
	cs, err := s.get(ctx, chatID)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	return fn(cs)
}

func (s *MemorySession) get(ctx context.Context, chatID int64) (*ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cs, ok := s.sessions[chatID]; ok {
		cs.lastSeen = s.now()
		return cs, nil
	}

	if s.baseline == nil {
		return nil, ErrNotReady
	}

	cs := &ChatSession{
		Engine:   screenerEngine.New(*s.baseline),
		lastSeen: s.now(),
	}
	s.sessions[chatID] = cs

	slog.Debug("chat session created", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.Int64("chatID", chatID))

	return cs, nil
}

// EvictExpired drops sessions idle for longer than the configured expiration.
func (s *MemorySession) EvictExpired(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	threshold := s.now().Add(-s.expiration)
	evicted := 0
	for chatID, cs := range s.sessions {
		if cs.lastSeen.Before(threshold) {
			delete(s.sessions, chatID)
			evicted++
		}
	}

	slog.Info(
		"sessions evicted",
		slog.String("rqID", utils.GetRequestIDFromCtx(ctx)),
		slog.Int("evicted", evicted),
		slog.Int("active", len(s.sessions)),
	)

	return nil
}

func (s *MemorySession) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
