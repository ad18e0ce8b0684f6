package service

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/igor04091968/tunnel-panel/database/model"
	"github.com/igor04091968/tunnel-panel/util"

	"gorm.io/gorm"
)

const tunnelsKey = "tunnels"

// PortValue is a local port exactly as a client submitted it: a JSON number
// or a numeric string. Anything else is kept verbatim so validation can
// reject it.
type PortValue string

func PortOf(port int) PortValue {
	return PortValue(strconv.Itoa(port))
}

func (p *PortValue) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = PortValue(strings.TrimSpace(s))
		return nil
	}
	*p = PortValue(raw)
	return nil
}

func (p PortValue) MarshalJSON() ([]byte, error) {
	if n, err := strconv.Atoi(string(p)); err == nil {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(string(p))
}

// TunnelFields are the six caller-supplied business fields of a tunnel.
type TunnelFields struct {
	Name        string    `json:"name"`
	ServiceType string    `json:"serviceType"`
	Hostname    string    `json:"hostname"`
	LocalPort   PortValue `json:"localPort"`
	LocalHost   string    `json:"localHost"`
	Protocol    string    `json:"protocol"`
}

// validate trims the string fields in place and returns the parsed port.
func (f *TunnelFields) validate() (int, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.ServiceType = strings.TrimSpace(f.ServiceType)
	f.Hostname = strings.TrimSpace(f.Hostname)
	f.LocalHost = strings.TrimSpace(f.LocalHost)
	f.Protocol = strings.TrimSpace(f.Protocol)

	verr := &ValidationError{}
	if f.Name == "" {
		verr.Missing = append(verr.Missing, "name")
	}
	if f.ServiceType == "" {
		verr.Missing = append(verr.Missing, "serviceType")
	}
	if f.Hostname == "" {
		verr.Missing = append(verr.Missing, "hostname")
	}

	port := 0
	switch f.LocalPort {
	case "", "0":
		verr.Missing = append(verr.Missing, "localPort")
	default:
		n, err := strconv.Atoi(string(f.LocalPort))
		if err != nil || n < 1 || n > 65535 {
			verr.Invalid = append(verr.Invalid, "localPort")
		} else {
			port = n
		}
	}

	if f.LocalHost == "" {
		verr.Missing = append(verr.Missing, "localHost")
	}
	if f.Protocol == "" {
		verr.Missing = append(verr.Missing, "protocol")
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return 0, verr
	}
	return port, nil
}

func (f *TunnelFields) apply(t *model.Tunnel, port int) {
	t.Name = f.Name
	t.ServiceType = f.ServiceType
	t.Hostname = f.Hostname
	t.LocalPort = port
	t.LocalHost = f.LocalHost
	t.Protocol = f.Protocol
}

var tunnelUpdateColumns = []string{
	"name", "service_type", "hostname", "local_port", "local_host", "protocol", "updated_at",
}

// TunnelService is the owner-scoped store of tunnel records. Every method
// takes the verified owner id explicitly and never reveals records of other
// owners.
type TunnelService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTunnelService(db *gorm.DB) *TunnelService {
	return &TunnelService{
		db:  db,
		now: time.Now,
	}
}

func (s *TunnelService) conn() *gorm.DB {
	return s.db.Session(&gorm.Session{NowFunc: s.now})
}

func scoped(tx *gorm.DB, ownerID string, id string) *gorm.DB {
	return tx.Where("id = ? AND owner_id = ?", id, ownerID)
}

// List returns every tunnel of ownerID, newest first.
func (s *TunnelService) List(ownerID string) ([]model.Tunnel, error) {
	tunnels := []model.Tunnel{}
	err := s.conn().
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&tunnels).Error
	if err != nil {
		return nil, storageErr("list tunnels", err)
	}
	return tunnels, nil
}

func (s *TunnelService) Get(ownerID string, id string) (*model.Tunnel, error) {
	var tunnel model.Tunnel
	err := scoped(s.conn(), ownerID, id).First(&tunnel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get tunnel", err)
	}
	return &tunnel, nil
}

// GetByName returns the newest tunnel of ownerID called name.
func (s *TunnelService) GetByName(ownerID string, name string) (*model.Tunnel, error) {
	var tunnel model.Tunnel
	err := s.conn().
		Where("owner_id = ? AND name = ?", ownerID, name).
		Order("created_at desc").
		First(&tunnel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get tunnel by name", err)
	}
	return &tunnel, nil
}

func (s *TunnelService) Create(ownerID string, fields TunnelFields) (*model.Tunnel, error) {
	port, err := fields.validate()
	if err != nil {
		return nil, err
	}

	tunnel := &model.Tunnel{OwnerID: ownerID}
	fields.apply(tunnel, port)

	err = s.conn().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tunnel).Error; err != nil {
			return err
		}
		return recordChange(tx, ownerID, tunnelsKey, "new", tunnel)
	})
	if err != nil {
		return nil, storageErr("create tunnel", err)
	}
	return tunnel, nil
}

// Update overwrites the business fields of an owned tunnel. The ownership
// lookup and the write share one transaction.
func (s *TunnelService) Update(ownerID string, id string, fields TunnelFields) (*model.Tunnel, error) {
	port, err := fields.validate()
	if err != nil {
		return nil, err
	}

	var tunnel model.Tunnel
	err = s.conn().Transaction(func(tx *gorm.DB) error {
		if err := scoped(tx, ownerID, id).First(&tunnel).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		fields.apply(&tunnel, port)
		tunnel.UpdatedAt = tx.NowFunc()
		if err := tx.Model(&tunnel).Select(tunnelUpdateColumns).Updates(&tunnel).Error; err != nil {
			return err
		}
		return recordChange(tx, ownerID, tunnelsKey, "edit", &tunnel)
	})
	if err != nil {
		return nil, storageErr("update tunnel", err)
	}
	return &tunnel, nil
}

func (s *TunnelService) Delete(ownerID string, id string) error {
	err := s.conn().Transaction(func(tx *gorm.DB) error {
		var tunnel model.Tunnel
		if err := scoped(tx, ownerID, id).First(&tunnel).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Delete(&tunnel).Error; err != nil {
			return err
		}
		return recordChange(tx, ownerID, tunnelsKey, "del", &tunnel)
	})
	return storageErr("delete tunnel", err)
}

// Commands renders the cloudflared commands of an owned tunnel.
func (s *TunnelService) Commands(ownerID string, id string) (*util.TunnelCommands, error) {
	tunnel, err := s.Get(ownerID, id)
	if err != nil {
		return nil, err
	}
	commands := util.GenerateCommands(tunnel)
	return &commands, nil
}
