package models

// SettingsModel is the singleton operator configuration. Both fields are
// pointers because a stored document may carry only one of them.
type SettingsModel struct {
	WagonLimit *int    `json:"wagon_limit" bson:"wagon_limit,omitempty"`
	RackID     *string `json:"rackId" bson:"rackId,omitempty"`
}

func NewSettingsModel(wagonLimit int, rackID string) *SettingsModel {
	return &SettingsModel{
		WagonLimit: &wagonLimit,
		RackID:     &rackID,
	}
}

// Configured reports whether the operator set both the limit and the rack.
func (s *SettingsModel) Configured() bool {
	return s != nil && s.WagonLimit != nil && s.RackID != nil
}
