package service

import "gorm.io/gorm"

// ServicesBundle groups initialized service instances to pass between
// application components (app -> web -> api, app -> telegram) without
// creating import cycles.
type ServicesBundle struct {
	TunnelService  *TunnelService
	UserService    *UserService
	SettingService *SettingService
	ChangeService  *ChangeService
	ServerService  *ServerService
}

func NewServicesBundle(db *gorm.DB) *ServicesBundle {
	return &ServicesBundle{
		TunnelService:  NewTunnelService(db),
		UserService:    NewUserService(db),
		SettingService: NewSettingService(db),
		ChangeService:  NewChangeService(db),
		ServerService:  NewServerService(),
	}
}
