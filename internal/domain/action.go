package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Action types recorded in the action log.
const (
	ActionPaint   = "paint"
	ActionErase   = "erase"
	ActionFill    = "fill"
	ActionClear   = "clear"
	ActionUndo    = "undo"
	ActionLoad    = "load"
	ActionRestore = "restore"
)

// Action is one applied edit of a board, kept for auditing and for
// deciding when to archive.
type Action struct {
	ID         uint      `gorm:"primaryKey"`
	BoardID    uint      `gorm:"index;not null"`
	UserID     uint      `gorm:"index;not null"`
	ActionType string    `gorm:"size:50;not null"`
	Data       string    `gorm:"type:text;not null"` // JSON encoded EditData
	Timestamp  time.Time `gorm:"index;not null"`
	Version    uint      `gorm:"not null"` // board version after the edit
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

// EditData describes the cells an action touched.
type EditData struct {
	Index   int    `json:"index"`
	Color   string `json:"color,omitempty"` // "#rrggbb", empty for erase/clear
	Changed int    `json:"changed"`         // number of cells that changed
}

// ParseData decodes the Data column.
func (a *Action) ParseData() (EditData, error) {
	var data EditData
	if a.Data == "" || a.Data == "null" {
		switch a.ActionType {
		case ActionPaint, ActionErase, ActionFill:
			return data, fmt.Errorf("action data is empty for action type %s", a.ActionType)
		}
		return data, nil
	}
	if err := json.Unmarshal([]byte(a.Data), &data); err != nil {
		return data, fmt.Errorf("failed to unmarshal action data: %w", err)
	}
	return data, nil
}

// SetData encodes data into the Data column.
func (a *Action) SetData(data EditData) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal action data: %w", err)
	}
	a.Data = string(bytes)
	return nil
}
