package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRackModel_NextWagon(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	loaded := "loaded"

	rack := NewRackModel("R1")
	engine := rack.NextWagon(&loaded, now)
	assert.Equal(t, 1, engine.WagonNo)
	assert.Equal(t, StatusEngine, engine.Status)
	assert.Equal(t, time.UTC, engine.Timestamp.Location())
	assert.False(t, engine.Id.IsZero())

	rack.Wagons = append(rack.Wagons, engine)
	wagon := rack.NextWagon(&loaded, now)
	assert.Equal(t, 2, wagon.WagonNo)
	assert.Equal(t, "loaded", wagon.Status)

	rack.Wagons = append(rack.Wagons, wagon)
	unknown := rack.NextWagon(nil, now)
	assert.Equal(t, 3, unknown.WagonNo)
	assert.Equal(t, StatusUnknown, unknown.Status)
}

func TestRackModel_TotalWagons(t *testing.T) {
	rack := NewRackModel("R1")
	assert.Equal(t, 0, rack.TotalWagons())

	rack.Wagons = []WagonModel{
		{WagonNo: 1, Status: StatusEngine},
		{WagonNo: 2, Status: "loaded"},
		{WagonNo: 3, Status: StatusUnknown},
	}
	assert.Equal(t, 2, rack.TotalWagons())
}

func TestNewRackSnapshotResponse(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	stored := time.Date(2024, 4, 30, 8, 30, 0, 0, time.UTC)
	engineID := primitive.NewObjectID()

	rack := &RackModel{
		Id:     primitive.NewObjectID(),
		RackID: "R1",
		Wagons: []WagonModel{
			{Id: engineID, WagonNo: 1, Status: StatusEngine, Timestamp: WagonTime{Time: stored}},
			{Id: primitive.NewObjectID(), WagonNo: 2, Status: "loaded"},
		},
	}

	snapshot := NewRackSnapshotResponse(rack, now)
	assert.Equal(t, rack.Id.Hex(), snapshot.Id)
	assert.Equal(t, "R1", snapshot.RackID)
	assert.Equal(t, 1, snapshot.TotalWagons)
	require.Len(t, snapshot.Wagons, 2)
	assert.Equal(t, engineID.Hex(), snapshot.Wagons[0].Id)
	assert.Equal(t, "2024-04-30T08:30:00+00:00", snapshot.Wagons[0].Timestamp)
	// missing timestamps fall back to now
	assert.Equal(t, "2024-05-01T10:00:00+00:00", snapshot.Wagons[1].Timestamp)

	body, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "message")
	assert.Contains(t, string(body), `"_id":"`+engineID.Hex()+`"`)
}

func TestNewRackSnapshotResponse_EmptyWagons(t *testing.T) {
	snapshot := NewRackSnapshotResponse(&RackModel{RackID: "R1"}, time.Now())
	body, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"wagons":[]`)
}

func TestSettingsModel_Configured(t *testing.T) {
	var missing *SettingsModel
	assert.False(t, missing.Configured())

	rackID := "R1"
	assert.False(t, (&SettingsModel{RackID: &rackID}).Configured())
	assert.True(t, NewSettingsModel(0, "R1").Configured())
}

func TestLenientInt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"integer", `5`, 5},
		{"negative", `-3`, -3},
		{"fraction truncates", `2.9`, 2},
		{"negative fraction truncates", `-2.9`, -2},
		{"numeric string", `"7"`, 7},
		{"string with suffix", `"12 wagons"`, 12},
		{"string with spaces", `"  4"`, 4},
		{"non numeric string", `"abc"`, 0},
		{"exponent string", `"1e2"`, 100},
		{"true", `true`, 1},
		{"false", `false`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req RackWagonRequest
			err := json.Unmarshal([]byte(`{"set_wagon_limit":`+tt.raw+`,"rackId":"R1"}`), &req)
			require.NoError(t, err)
			require.NotNil(t, req.SetWagonLimit)
			assert.Equal(t, tt.want, int(*req.SetWagonLimit))
			assert.True(t, req.IsSetLimit())
		})
	}
}

func TestRackWagonRequest_Modes(t *testing.T) {
	var req RackWagonRequest
	require.NoError(t, json.Unmarshal([]byte(`{"rackId":"R1","status":"loaded"}`), &req))
	assert.False(t, req.IsSetLimit())
	assert.Equal(t, "loaded", *req.Status)

	req = RackWagonRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"set_wagon_limit":null,"rackId":"R1"}`), &req))
	assert.False(t, req.IsSetLimit())

	req = RackWagonRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"set_wagon_limit":3}`), &req))
	assert.False(t, req.IsSetLimit())
	assert.Nil(t, req.RackID)

	req = RackWagonRequest{}
	assert.Error(t, json.Unmarshal([]byte(`{"set_wagon_limit":[1],"rackId":"R1"}`), &req))
}

func TestRackModel_NextWagonRefusesSecondEngine(t *testing.T) {
	engineStatus := StatusEngine
	rack := NewRackModel("R1")
	rack.Wagons = append(rack.Wagons, rack.NextWagon(nil, time.Now()))

	wagon := rack.NextWagon(&engineStatus, time.Now())
	assert.Equal(t, 2, wagon.WagonNo)
	assert.Equal(t, StatusUnknown, wagon.Status)
}

func TestWagonTime_BSON(t *testing.T) {
	stored := time.Date(2024, 4, 30, 8, 30, 0, 0, time.UTC)
	data, err := bson.Marshal(WagonModel{WagonNo: 1, Status: StatusEngine, Timestamp: WagonTime{Time: stored}})
	require.NoError(t, err)
	assert.Equal(t, bsontype.DateTime, bson.Raw(data).Lookup("timestamp").Type)

	var decoded WagonModel
	require.NoError(t, bson.Unmarshal(data, &decoded))
	assert.True(t, stored.Equal(decoded.Timestamp.Time))

	data, err = bson.Marshal(bson.D{{Key: "wagonNo", Value: 2}, {Key: "timestamp", Value: "yesterday"}})
	require.NoError(t, err)
	require.NoError(t, bson.Unmarshal(data, &decoded))
	assert.Equal(t, 2, decoded.WagonNo)
	assert.True(t, decoded.Timestamp.IsZero())
}
