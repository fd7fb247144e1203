package store

import (
	"context"
	"encoding/json"

	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/data/redisStore"
	"github.com/akolanti/FlashRAG/internal/domain/jobModel"
	"github.com/akolanti/FlashRAG/pkg/logger_i"
)

type RedisJobStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisJobStore(ctx context.Context) *RedisJobStore {
	backing := redisStore.GetRedisStore(ctx, config.RedisJobStore)
	if backing == nil {
		return nil
	}
	return &RedisJobStore{
		store:  backing,
		logger: logger_i.NewLogger("JobStore"),
	}
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "jobId", job.Id)
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	err = s.store.Set(ctx, job.Id, data, config.RedisJobStoreTTL)
	if err == nil {
		log.Debug("Saved job to Redis")
	}
	return err
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	val, err := s.store.Get(ctx, jobId)
	if err != nil {
		return job, false
	}

	if err = json.Unmarshal([]byte(val), &job); err != nil {
		s.logger.Error("Corrupt job record", "jobId", jobId, "error", err)
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	if err := s.store.Del(ctx, jobID); err != nil {
		s.logger.Error("Error deleting job from Redis", "jobId", jobID, "error", err)
		return
	}
	s.logger.Debug("Job deleted from Redis", "jobId", jobID)
}

func TestJobStore(store *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}
