package cronjob

import (
	"time"

	"github.com/igor04091968/tunnel-panel/api"
	"github.com/igor04091968/tunnel-panel/logger"
)

type PruneLimiterJob struct {
	limiter *api.RateLimiter
	idle    time.Duration
}

func NewPruneLimiterJob(limiter *api.RateLimiter, idle time.Duration) *PruneLimiterJob {
	return &PruneLimiterJob{
		limiter: limiter,
		idle:    idle,
	}
}

func (s *PruneLimiterJob) Run() {
	if n := s.limiter.Prune(s.idle); n > 0 {
		logger.Debug("forgot ", n, " idle clients, ", s.limiter.Len(), " tracked")
	}
}
