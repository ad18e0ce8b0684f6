package service

import (
	"errors"

	"github.com/igor04091968/tunnel-panel/database/model"
	"github.com/igor04091968/tunnel-panel/util/common"

	"gorm.io/gorm"
)

const secretKey = "secret"

type SettingService struct {
	db *gorm.DB
}

func NewSettingService(db *gorm.DB) *SettingService {
	return &SettingService{db: db}
}

func (s *SettingService) getString(key string) (string, error) {
	setting := &model.Setting{}
	err := s.db.Where(&model.Setting{Key: key}).First(setting).Error
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (s *SettingService) saveSetting(key string, value string) error {
	setting := &model.Setting{}
	err := s.db.Where(&model.Setting{Key: key}).First(setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(&model.Setting{Key: key, Value: value}).Error
	}
	if err != nil {
		return err
	}
	setting.Value = value
	return s.db.Save(setting).Error
}

// GetSecret returns the persisted session signing secret, generating one on
// first use.
func (s *SettingService) GetSecret() ([]byte, error) {
	secret, err := s.getString(secretKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		secret = common.Random(32)
		err = s.saveSetting(secretKey, secret)
	}
	if err != nil {
		return nil, storageErr("get secret", err)
	}
	return []byte(secret), nil
}
