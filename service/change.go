package service

import (
	"encoding/json"
	"time"

	"github.com/igor04091968/tunnel-panel/database/model"

	"gorm.io/gorm"
)

// recordChange appends an audit entry inside the caller's transaction.
func recordChange(tx *gorm.DB, actor string, key string, action string, obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return tx.Create(&model.Change{
		DateTime: tx.NowFunc().Unix(),
		Actor:    actor,
		Key:      key,
		Action:   action,
		Obj:      data,
	}).Error
}

type ChangeService struct {
	db *gorm.DB
}

func NewChangeService(db *gorm.DB) *ChangeService {
	return &ChangeService{db: db}
}

// GetChanges returns the newest count changes made by actor.
func (s *ChangeService) GetChanges(actor string, count int) ([]model.Change, error) {
	if count <= 0 {
		count = 10
	}
	changes := []model.Change{}
	err := s.db.Where("actor = ?", actor).Order("id desc").Limit(count).Find(&changes).Error
	if err != nil {
		return nil, storageErr("get changes", err)
	}
	return changes, nil
}

// DelOldChanges removes changes older than days. It returns the number of
// deleted rows.
func (s *ChangeService) DelOldChanges(days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	oldTime := time.Now().AddDate(0, 0, -days).Unix()
	result := s.db.Where("date_time < ?", oldTime).Delete(&model.Change{})
	if result.Error != nil {
		return 0, storageErr("delete old changes", result.Error)
	}
	return result.RowsAffected, nil
}
