package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eleven-am/dicom-viewer/internal/dto"
	"github.com/eleven-am/dicom-viewer/internal/shared"
)

const sessionTTL = 24 * time.Hour

// Store keeps sessions, series metadata, and frame buffers in redis. Frame
// buffers are written wholesale per series and expire with their session.
type Store struct {
	redis *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) CreateSession(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = shared.NewID("sess_")
	}
	sess.Status = StatusActive
	sess.CreatedAt = time.Now()
	sess.LastActiveAt = time.Now()

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sess.RedisKey(), data, sessionTTL).Err()
}

func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, "session:"+id).Bytes()
	if err == redis.Nil {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Touch refreshes the session TTL on activity.
func (s *Store) Touch(ctx context.Context, sess *Session) error {
	sess.LastActiveAt = time.Now()
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sess.RedisKey(), data, sessionTTL).Err()
}

// ListSessions returns the IDs of every live session.
func (s *Store) ListSessions(ctx context.Context) ([]string, error) {
	keys, err := s.redis.Keys(ctx, "session:sess_*").Result()
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		if sess.Status == StatusActive {
			ids = append(ids, sess.ID)
		}
	}
	return ids, nil
}

// DeleteSession removes the session and every series key under it.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.redis.Pipeline()
	for _, uid := range sess.SeriesOrder {
		pipe.Del(ctx, seriesKey(id, uid))
		pipe.Del(ctx, framesKey(id, uid))
	}
	pipe.Del(ctx, sess.RedisKey())
	_, err = pipe.Exec(ctx)
	return err
}

// PutSeries stores a series' metadata and its full frame buffer.
func (s *Store) PutSeries(ctx context.Context, sessionID string, meta *SeriesMeta, frames []dto.Frame) error {
	metaData, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	frameData, err := json.Marshal(frames)
	if err != nil {
		return err
	}

	pipe := s.redis.Pipeline()
	pipe.Set(ctx, seriesKey(sessionID, meta.UID), metaData, sessionTTL)
	pipe.Set(ctx, framesKey(sessionID, meta.UID), frameData, sessionTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) GetSeriesMeta(ctx context.Context, sessionID, uid string) (*SeriesMeta, error) {
	data, err := s.redis.Get(ctx, seriesKey(sessionID, uid)).Bytes()
	if err == redis.Nil {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var meta SeriesMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) GetFrames(ctx context.Context, sessionID, uid string) ([]dto.Frame, error) {
	data, err := s.redis.Get(ctx, framesKey(sessionID, uid)).Bytes()
	if err == redis.Nil {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var frames []dto.Frame
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, err
	}
	return frames, nil
}

// GetFrame fetches one frame by index.
func (s *Store) GetFrame(ctx context.Context, sessionID, uid string, index int) (*dto.Frame, int, error) {
	frames, err := s.GetFrames(ctx, sessionID, uid)
	if err != nil {
		return nil, 0, err
	}
	if index < 0 || index >= len(frames) {
		return nil, len(frames), shared.ErrOutOfRange
	}
	return &frames[index], len(frames), nil
}
