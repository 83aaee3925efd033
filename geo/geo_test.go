package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BourgeoisBear/throne/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/") {
		case "8.8.8.8":
			w.Write([]byte(`{"status":"success","country":"United States","countryCode":"US","region":"VA",
				"regionName":"Virginia","city":"Ashburn","zip":"20149","lat":39.03,"lon":-77.5,
				"timezone":"America/New_York","isp":"Google LLC","org":"Google Public DNS",
				"as":"AS15169 Google LLC","query":"8.8.8.8"}`))
		case "10.0.0.1":
			w.Write([]byte(`{"status":"fail","message":"private range","query":"10.0.0.1"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(fetch.New(srv.Client(), nil), srv.URL)
	ctx := context.Background()

	res, err := c.Lookup(ctx, " 8.8.8.8 ")
	require.NoError(t, err)
	assert.Equal(t, "Ashburn, VA, US", res.Location())
	assert.Equal(t, "AS15169 Google LLC", res.AS)
	assert.InDelta(t, 39.03, res.Lat, 0.001)
	assert.NotEmpty(t, res.CountryName())

	_, err = c.Lookup(ctx, "10.0.0.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private range")

	_, err = c.Lookup(ctx, "8.8.8.0/24")
	assert.ErrorIs(t, err, ErrNotAddress)
}

func TestCountryName(t *testing.T) {
	r := Result{CountryCode: "JP", Country: "Japan"}
	assert.Equal(t, "Japan", r.CountryName())

	r = Result{CountryCode: "", Country: "Atlantis"}
	assert.Equal(t, "Atlantis", r.CountryName())
}

func TestLocationSkipsEmpty(t *testing.T) {
	r := Result{City: "", Region: "NSW", CountryCode: "AU"}
	assert.Equal(t, "NSW, AU", r.Location())
}
