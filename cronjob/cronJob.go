package cronjob

import (
	"time"

	"github.com/igor04091968/tunnel-panel/api"
	"github.com/igor04091968/tunnel-panel/service"

	"github.com/robfig/cron/v3"
)

// limiterIdle is how long a client may stay quiet before its rate limit
// bucket is forgotten.
const limiterIdle = 30 * time.Minute

type CronJob struct {
	cron *cron.Cron
}

func NewCronJob() *CronJob {
	return &CronJob{}
}

// Start schedules the housekeeping jobs. A retention of zero days keeps the
// audit trail forever and a nil limiter skips the prune job.
func (c *CronJob) Start(loc *time.Location, changes *service.ChangeService, retentionDays int, limiter *api.RateLimiter) error {
	c.cron = cron.New(cron.WithLocation(loc))

	if retentionDays > 0 {
		// Delete old changes every day
		if _, err := c.cron.AddJob("@daily", NewDelChangesJob(changes, retentionDays)); err != nil {
			return err
		}
	}
	if limiter != nil {
		if _, err := c.cron.AddJob("@every 5m", NewPruneLimiterJob(limiter, limiterIdle)); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

func (c *CronJob) Stop() {
	if c.cron != nil {
		<-c.cron.Stop().Done()
	}
}
