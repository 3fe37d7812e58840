package models

import "time"

// ISO8601Layout matches the offset style timestamps clients already parse
// (2024-05-01T10:00:00+00:00).
const ISO8601Layout = "2006-01-02T15:04:05-07:00"

type WagonResponse struct {
	WagonNo   int    `json:"wagonNo"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Id        string `json:"_id"`
}

type RackSnapshotResponse struct {
	Id          string          `json:"id"`
	RackID      string          `json:"rackId"`
	Wagons      []WagonResponse `json:"wagons"`
	TotalWagons int             `json:"totalWagons"`
	Message     string          `json:"message,omitempty"`
}

type SetLimitResponse struct {
	Message string `json:"message"`
	RackID  string `json:"rackId"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewRackSnapshotResponse renders a rack for clients. Wagons stored without a
// usable timestamp are reported with now.
func NewRackSnapshotResponse(rack *RackModel, now time.Time) RackSnapshotResponse {
	wagons := make([]WagonResponse, 0, len(rack.Wagons))
	for _, wagon := range rack.Wagons {
		ts := wagon.Timestamp.Time
		if ts.IsZero() {
			ts = now
		}
		wagons = append(wagons, WagonResponse{
			WagonNo:   wagon.WagonNo,
			Status:    wagon.Status,
			Timestamp: ts.UTC().Format(ISO8601Layout),
			Id:        wagon.Id.Hex(),
		})
	}

	return RackSnapshotResponse{
		Id:          rack.Id.Hex(),
		RackID:      rack.RackID,
		Wagons:      wagons,
		TotalWagons: rack.TotalWagons(),
	}
}
