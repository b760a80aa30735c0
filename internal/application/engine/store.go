package engine

import (
	"context"
	"encoding/json"
	"sync"

	"kaushal-ai-api/internal/domain/entity"
	"kaushal-ai-api/pkg/logger"
)

// SnapshotStore 会话快照的持久化端口。
// 进程内状态是权威副本，快照只用于重启恢复，读写失败均不阻塞本轮会话。
type SnapshotStore interface {
	Load(ctx context.Context, userID int64) ([]byte, bool, error)
	Save(ctx context.Context, userID int64, snapshot []byte) error
	Delete(ctx context.Context, userID int64) error
}

// Store 草稿状态存储。内存持有每个用户的 Session，
// 按用户键访问；同一用户的读写发生在其串行队列内，天然满足 read-your-writes。
type Store struct {
	mu        sync.RWMutex
	sessions  map[int64]*entity.Session
	snapshots SnapshotStore
}

// NewStore 创建草稿状态存储，snapshots 可为 nil（纯内存模式）
func NewStore(snapshots SnapshotStore) *Store {
	return &Store{
		sessions:  make(map[int64]*entity.Session),
		snapshots: snapshots,
	}
}

// Get 获取用户会话。内存未命中时尝试从快照恢复；仍然没有则返回全新空会话。
func (s *Store) Get(ctx context.Context, userID int64) *entity.Session {
	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	if s.snapshots != nil {
		data, found, err := s.snapshots.Load(ctx, userID)
		if err != nil {
			logger.Warn(ctx, "session snapshot load failed", "user_id", userID, "error", err.Error())
		} else if found {
			var restored entity.Session
			if err := json.Unmarshal(data, &restored); err != nil {
				logger.Warn(ctx, "session snapshot corrupt, starting fresh", "user_id", userID, "error", err.Error())
			} else {
				s.mu.Lock()
				if existing, ok := s.sessions[userID]; ok {
					s.mu.Unlock()
					return existing
				}
				s.sessions[userID] = &restored
				s.mu.Unlock()
				return &restored
			}
		}
	}

	sess = entity.NewSession(userID)
	s.mu.Lock()
	if existing, ok := s.sessions[userID]; ok {
		s.mu.Unlock()
		return existing
	}
	s.sessions[userID] = sess
	s.mu.Unlock()
	return sess
}

// Save 提交会话并写快照。快照失败只记日志，不影响本轮结果。
func (s *Store) Save(ctx context.Context, sess *entity.Session) {
	if sess == nil {
		return
	}

	s.mu.Lock()
	s.sessions[sess.UserID] = sess
	s.mu.Unlock()

	if s.snapshots == nil {
		return
	}
	data, err := json.Marshal(sess)
	if err != nil {
		logger.Warn(ctx, "session snapshot marshal failed", "user_id", sess.UserID, "error", err.Error())
		return
	}
	if err := s.snapshots.Save(ctx, sess.UserID, data); err != nil {
		logger.Warn(ctx, "session snapshot save failed", "user_id", sess.UserID, "error", err.Error())
	}
}

// AppendHistory 追加一条已应用的指令集并提交
func (s *Store) AppendHistory(ctx context.Context, userID int64, cues entity.CueSet) {
	sess := s.Get(ctx, userID)
	sess.AppendRefinement(cues)
	s.Save(ctx, sess)
}

// Evict 从内存移除会话（快照保留，下次访问时恢复）
func (s *Store) Evict(userID int64) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}
