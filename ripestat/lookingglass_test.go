package ripestat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lgResponse = `{
	"status": "ok", "time": "2024-05-01T10:00:00", "cached": true,
	"data": {
		"query_time": "2024-05-01T09:59:00",
		"latest_time": "2024-05-01T09:58:00",
		"rrcs": [
			{"rrc": "RRC11", "location": "New York City, New York, US", "peers": [
				{"asn_origin": "1205", "as_path": "6939 1853 1205", "community": "6939:1000 6939:1001",
				 "last_updated": "2024-04-30T12:00:00", "prefix": "140.78.0.0/16", "peer": "198.32.160.1",
				 "origin": "IGP", "next_hop": "198.32.160.1", "latest_time": "2024-05-01T09:58:00"},
				{"asn_origin": "1205", "as_path": "3356 1205", "peer": "198.32.160.2"}
			]},
			{"rrc": "RRC12", "location": "Frankfurt, Germany", "peers": [
				{"asn_origin": 1205, "as_path": [6695, 1853, 1205], "community": ["1853:100"], "peer": "80.81.192.1"}
			]},
			{"rrc": "RRC99", "location": "Frankfurt, Germany", "peers": [
				{"asn_origin": 1205, "as_path": "1 2 1205", "peer": "10.0.0.1"}
			]},
			{"rrc": "RRC19", "location": "Johannesburg, South Africa", "peers": []},
			{"rrc": "RRC06", "location": "Tokyo, Japan", "peers": [
				{"asn_origin": "1205", "as_path": "2497 {64512,64513} 1205", "peer": "202.249.2.1"}
			]},
			{"rrc": "RRC77", "location": "Nowhere, Unknown", "peers": [
				{"asn_origin": "1205", "as_path": "1205", "peer": "1.2.3.4"}
			]}
		]
	}
}`

func TestParseLookingGlass(t *testing.T) {

	lg, err := ParseLookingGlass([]byte(lgResponse))
	require.NoError(t, err)

	assert.True(t, lg.Cached)
	assert.Equal(t, "2024-05-01T09:59:00", lg.QueryTime)
	assert.Equal(t, "2024-05-01T09:58:00", lg.LatestPoll)

	ny := lg.Entries[LocUSNY]
	require.True(t, ny.Found)
	assert.Equal(t, "RRC11", ny.Collector)
	assert.Equal(t, "198.32.160.1", ny.Peer, "only the first peer is used")
	assert.Equal(t, "1205", ny.OriginAS)
	assert.Equal(t, []int{6939, 1853, 1205}, ny.ASPath)
	assert.Equal(t, []string{"6939:1000", "6939:1001"}, ny.Communities)
	assert.Equal(t, "IGP", ny.Origin)

	de := lg.Entries[LocDE]
	require.True(t, de.Found)
	assert.Equal(t, "RRC12", de.Collector, "first collector for a location wins")
	assert.Equal(t, "1205", de.OriginAS)
	assert.Equal(t, []int{6695, 1853, 1205}, de.ASPath)
	assert.Equal(t, []string{"1853:100"}, de.Communities)

	assert.False(t, lg.Entries[LocZA].Found, "collector without peers is dropped")

	jp := lg.Entries[LocJP]
	require.True(t, jp.Found)
	assert.Equal(t, []int{2497, 1205}, jp.ASPath)

	by := lg.ByCode()
	assert.Len(t, by, int(LocMAX))
	for _, code := range []string{"US-NY", "US-FL", "US-CA", "UK", "NL", "SG", "DE", "ZA", "JP"} {
		_, ok := by[code]
		assert.True(t, ok, code)
	}
	assert.False(t, by["SG"].Found)
	for _, e := range lg.Entries {
		assert.NotEqual(t, "RRC77", e.Collector)
	}
}

func TestClassify(t *testing.T) {

	tests := []struct {
		text string
		loc  Location
		ok   bool
	}{
		{"New York City, New York, US", LocUSNY, true},
		{"Miami, Florida, US", LocUSFL, true},
		{"Palo Alto, California, US", LocUSCA, true},
		{"London, United Kingdom", LocUK, true},
		{"Amsterdam, Netherlands", LocNL, true},
		{"Singapore, Singapore", LocSG, true},
		{"Frankfurt, Germany", LocDE, true},
		{"Johannesburg, South Africa", LocZA, true},
		{"Tokyo, Japan", LocJP, true},
		{"Nowhere, Unknown", LocMAX, false},
	}

	for _, tt := range tests {
		l, ok := Classify(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.loc, l, tt.text)
	}
}

func TestLocationFromCode(t *testing.T) {

	l, ok := LocationFromCode("us-ny")
	assert.True(t, ok)
	assert.Equal(t, LocUSNY, l)
	assert.Equal(t, "US-NY", l.String())

	_, ok = LocationFromCode("XX")
	assert.False(t, ok)
	assert.Equal(t, "?", LocMAX.String())
}

func TestParseLookingGlassEmpty(t *testing.T) {

	lg, err := ParseLookingGlass([]byte(`{"status": "ok", "data": {"rrcs": []}}`))
	require.NoError(t, err)
	for _, e := range lg.Entries {
		assert.False(t, e.Found)
	}

	_, err = ParseLookingGlass([]byte(`{"status": "ok", "data": {"rrcs": {}}}`))
	assert.Error(t, err)
}
