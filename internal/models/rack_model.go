package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusEngine  = "engine"
	StatusUnknown = "unknown"
)

// WagonModel is one entry of a rack. Wagons are embedded in their rack document
// and never stored on their own.
type WagonModel struct {
	Id        primitive.ObjectID `json:"_id" bson:"_id"`
	WagonNo   int                `json:"wagonNo" bson:"wagonNo"`
	Status    string             `json:"status" bson:"status"`
	Timestamp WagonTime          `json:"timestamp" bson:"timestamp"`
}

// WagonTime is the creation time of a wagon. Anything stored under the key that
// is not a BSON date decodes to the zero time instead of failing the whole rack.
type WagonTime struct {
	time.Time
}

func (t WagonTime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(t.Time)
}

func (t *WagonTime) UnmarshalBSONValue(valueType bsontype.Type, data []byte) error {
	t.Time = time.Time{}
	raw := bson.RawValue{Type: valueType, Value: data}
	if ts, ok := raw.TimeOK(); ok {
		t.Time = ts.UTC()
	}
	return nil
}

// RackModel is the document stored per rackId. Version is bumped on every write
// and used as the optimistic concurrency token.
type RackModel struct {
	Id      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RackID  string             `json:"rackId" bson:"rackId"`
	Wagons  []WagonModel       `json:"wagons" bson:"wagons"`
	Version int64              `json:"-" bson:"version"`
}

func NewRackModel(rackID string) *RackModel {
	return &RackModel{
		Id:     primitive.NewObjectID(),
		RackID: rackID,
		Wagons: []WagonModel{},
	}
}

// TotalWagons counts the wagons that are not engines.
func (r *RackModel) TotalWagons() int {
	total := 0
	for _, wagon := range r.Wagons {
		if wagon.Status != StatusEngine {
			total++
		}
	}
	return total
}

// NextWagon builds the wagon that would be appended to the rack. The first
// wagon is always the engine whatever status was asked for, and no later wagon
// may claim to be one.
func (r *RackModel) NextWagon(status *string, now time.Time) WagonModel {
	wagonNo := len(r.Wagons) + 1

	wagonStatus := StatusUnknown
	if status != nil {
		wagonStatus = *status
	}
	if wagonNo == 1 {
		wagonStatus = StatusEngine
	} else if wagonStatus == StatusEngine {
		wagonStatus = StatusUnknown
	}

	return WagonModel{
		Id:        primitive.NewObjectID(),
		WagonNo:   wagonNo,
		Status:    wagonStatus,
		Timestamp: WagonTime{Time: now.UTC()},
	}
}
