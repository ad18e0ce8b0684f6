package model

import "encoding/json"

// Change is one audit entry written alongside a tunnel mutation.
type Change struct {
	Id       uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	DateTime int64           `json:"dateTime" gorm:"index"`
	Actor    string          `json:"actor" gorm:"index"`
	Key      string          `json:"key"`
	Action   string          `json:"action"`
	Obj      json.RawMessage `json:"obj"`
}
