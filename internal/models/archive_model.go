package models

import "time"

// ArchiveModel is the state written out before the collections are wiped.
type ArchiveModel struct {
	CreatedAt time.Time      `json:"createdAt"`
	Settings  *SettingsModel `json:"settings"`
	Racks     []RackModel    `json:"racks"`
}
