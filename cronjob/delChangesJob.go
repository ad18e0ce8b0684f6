package cronjob

import (
	"github.com/igor04091968/tunnel-panel/logger"
	"github.com/igor04091968/tunnel-panel/service"
	"github.com/igor04091968/tunnel-panel/util/common"
)

type DelChangesJob struct {
	changes       *service.ChangeService
	retentionDays int
}

func NewDelChangesJob(changes *service.ChangeService, days int) *DelChangesJob {
	return &DelChangesJob{
		changes:       changes,
		retentionDays: days,
	}
}

func (s *DelChangesJob) Run() {
	defer common.Recover("delete old changes")
	n, err := s.changes.DelOldChanges(s.retentionDays)
	if err != nil {
		logger.Warning("Deleting old changes failed: ", err)
		return
	}
	logger.Debug(n, " changes older than ", s.retentionDays, " days were deleted")
}
