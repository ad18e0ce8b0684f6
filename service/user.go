package service

import (
	"errors"
	"strings"
	"time"

	"github.com/igor04091968/tunnel-panel/database/model"
	"github.com/igor04091968/tunnel-panel/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("wrong user or password")
	ErrUserExists         = errors.New("username already taken")
)

const minPasswordLen = 6

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *UserService) GetFirstUser() (*model.User, error) {
	user := &model.User{}
	err := s.db.Model(model.User{}).Order("created_at asc").First(user).Error
	if err != nil {
		return nil, storageErr("get first user", err)
	}
	return user, nil
}

// UpdateFirstUser resets the credentials of the oldest account. Empty values
// leave the corresponding field unchanged.
func (s *UserService) UpdateFirstUser(username string, password string) error {
	user, err := s.GetFirstUser()
	if err != nil {
		return err
	}
	if username != "" {
		user.Username = username
	}
	if password != "" {
		hash, err := hashPassword(password)
		if err != nil {
			return err
		}
		user.Password = hash
	}
	return storageErr("update first user", s.db.Save(user).Error)
}

func (s *UserService) GetUser(id string) (*model.User, error) {
	user := &model.User{}
	err := s.db.Where("id = ?", id).First(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageErr("get user", err)
	}
	return user, nil
}

func (s *UserService) GetUserByUsername(username string) (*model.User, error) {
	user := &model.User{}
	err := s.db.Where("username = ?", username).First(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageErr("get user", err)
	}
	return user, nil
}

func (s *UserService) Login(username string, password string, remoteIP string) (*model.User, error) {
	user, err := s.GetUserByUsername(username)
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
		if err != nil {
			err = ErrInvalidCredentials
		}
	}
	if err != nil {
		logger.Warningf("wrong user or password: %q from IP %s", username, remoteIP)
		return nil, err
	}

	user.LastLogin = time.Now().Unix()
	if err := s.db.Model(user).Update("last_login", user.LastLogin).Error; err != nil {
		logger.Warning("unable to save last login: ", err)
	}
	return user, nil
}

func (s *UserService) Register(username string, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	verr := &ValidationError{}
	if username == "" {
		verr.Missing = append(verr.Missing, "username")
	}
	if password == "" {
		verr.Missing = append(verr.Missing, "password")
	} else if len(password) < minPasswordLen {
		verr.Invalid = append(verr.Invalid, "password")
	}
	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return nil, verr
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Username: username, Password: hash}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUserExists
		}
		return tx.Create(user).Error
	})
	if errors.Is(err, ErrUserExists) {
		return nil, err
	}
	if err != nil {
		return nil, storageErr("register user", err)
	}
	return user, nil
}

func (s *UserService) ChangePass(id string, oldPass string, newUsername string, newPass string) error {
	user, err := s.GetUser(id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPass)) != nil {
		return ErrInvalidCredentials
	}
	if newPass != "" && len(newPass) < minPasswordLen {
		return &ValidationError{Invalid: []string{"newPass"}}
	}
	if newUsername != "" && newUsername != user.Username {
		var count int64
		if err := s.db.Model(&model.User{}).Where("username = ?", newUsername).Count(&count).Error; err != nil {
			return storageErr("change password", err)
		}
		if count > 0 {
			return ErrUserExists
		}
		user.Username = newUsername
	}
	if newPass != "" {
		hash, err := hashPassword(newPass)
		if err != nil {
			return err
		}
		user.Password = hash
	}
	return storageErr("change password", s.db.Save(user).Error)
}
