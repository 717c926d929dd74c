package stores

import (
	"context"
	"sync"

	"github.com/cupogo/andvari/models/oid"

	"github.com/liut/tutoria/pkg/models/convo"
	"github.com/liut/tutoria/pkg/settings"
)

const (
	// 会话轮次上限, 超出后丢弃最早的
	historyMaxLength = 40
)

// Session 绑定一段会话历史
type Session interface {
	GetID() string
	AppendTurn(ctx context.Context, turn *convo.Turn) error
	ListTurns(ctx context.Context) (convo.Turns, error)
	ClearTurns(ctx context.Context) error
}

// Sessions hands out sessions keyed by their id. A blank id yields a
// fresh session with a generated id; any other id is used verbatim,
// so a caller holding the same string always lands on the same history.
type Sessions interface {
	GetOrCreate(id string) Session
}

// NewSessions picks the backend from settings: redis when a URI is
// configured, otherwise in-process memory.
func NewSessions() Sessions {
	if len(settings.Current.RedisURI) > 0 {
		return &redisSessions{rc: SgtRC()}
	}
	logger().Infow("redis uri unset, using memory sessions")
	return NewMemorySessions()
}

func sessionID(id string) string {
	if len(id) == 0 {
		return oid.NewID(oid.OtEvent).String()
	}
	return id
}

type redisSessions struct {
	rc RedisClient
}

func (rs *redisSessions) GetOrCreate(id string) Session {
	return &redisSession{id: sessionID(id), rc: rs.rc}
}

type redisSession struct {
	id string
	rc RedisClient
}

func (s *redisSession) GetID() string {
	return s.id
}

func (s *redisSession) AppendTurn(ctx context.Context, turn *convo.Turn) error {
	key := s.getKey()
	b, err := turn.MarshalBinary()
	if err != nil {
		return err
	}
	res := s.rc.RPush(ctx, key, b)
	err = res.Err()
	if err == nil {
		count, _ := res.Result()
		if count > historyMaxLength {
			logger().Infow("history length overflow", "count", count)
			err = s.rc.LPop(ctx, key).Err()
		}
	}
	if err != nil {
		logger().Infow("append turn fail", "key", key, "err", err)
	}
	return err
}

func (s *redisSession) ListTurns(ctx context.Context) (data convo.Turns, err error) {
	key := s.getKey()
	ss := s.rc.LRange(ctx, key, 0, -1)
	err = ss.ScanSlice(&data)
	return
}

func (s *redisSession) ClearTurns(ctx context.Context) error {
	return s.rc.Del(ctx, s.getKey()).Err()
}

func (s *redisSession) getKey() string {
	return "sess-" + s.id
}

// NewMemorySessions return sessions held in process memory
func NewMemorySessions() Sessions {
	return &memorySessions{data: make(map[string]*memorySession)}
}

type memorySessions struct {
	mu   sync.Mutex
	data map[string]*memorySession
}

func (ms *memorySessions) GetOrCreate(id string) Session {
	id = sessionID(id)
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if s, ok := ms.data[id]; ok {
		return s
	}
	s := &memorySession{id: id}
	ms.data[id] = s
	return s
}

type memorySession struct {
	mu    sync.Mutex
	id    string
	turns convo.Turns
}

func (s *memorySession) GetID() string {
	return s.id
}

func (s *memorySession) AppendTurn(ctx context.Context, turn *convo.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, *turn)
	if len(s.turns) > historyMaxLength {
		s.turns = s.turns[len(s.turns)-historyMaxLength:]
	}
	return nil
}

func (s *memorySession) ListTurns(ctx context.Context) (convo.Turns, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(convo.Turns, len(s.turns))
	copy(out, s.turns)
	return out, nil
}

func (s *memorySession) ClearTurns(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	return nil
}
