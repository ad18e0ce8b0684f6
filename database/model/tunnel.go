package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

// Tunnel is a stored description of a desired cloudflared forwarding rule.
// It is never an active connection.
type Tunnel struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	OwnerID     string    `json:"ownerId" gorm:"index;size:36;not null"`
	Name        string    `json:"name" gorm:"not null"`
	ServiceType string    `json:"serviceType" gorm:"not null"`
	Hostname    string    `json:"hostname" gorm:"not null"`
	LocalPort   int       `json:"localPort" gorm:"not null"`
	LocalHost   string    `json:"localHost" gorm:"not null"`
	Protocol    string    `json:"protocol" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t *Tunnel) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		t.ID = id.String()
	}
	return nil
}
