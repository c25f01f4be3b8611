package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/narasim-teja/tars/resiliency"
	"github.com/narasim-teja/tars/types"
)

func testHTTPClient() *resiliency.Client {
	return resiliency.NewClient(time.Second, 0, log.NewNopLogger())
}

func TestGeocodeReversePrefersCityThenTownThenVillage(t *testing.T) {
	require := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal("/reverse", r.URL.Path)
		require.Equal("json", r.URL.Query().Get("format"))
		require.NotEmpty(r.URL.Query().Get("lat"))
		w.Write([]byte(`{"display_name":"Somewhere, Karnataka, India","address":{"town":"Hosur","state":"Karnataka","country":"India"}}`))
	}))
	defer srv.Close()

	c := NewGeocodeClient(srv.URL, testHTTPClient(), log.NewNopLogger())
	loc, err := c.Reverse(context.Background(), types.GeoPoint{Latitude: 12.7, Longitude: 77.8})
	require.NoError(err)
	require.Equal("Hosur", loc.City)
	require.Equal("Karnataka", loc.State)
	require.Equal("India", loc.Country)
	require.Equal("Somewhere, Karnataka, India", loc.Address)
}

func TestWeatherHistoricalPicksCaptureHour(t *testing.T) {
	require := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal("2024-03-10", r.URL.Query().Get("start_date"))
		require.Equal("2024-03-10", r.URL.Query().Get("end_date"))
		w.Write([]byte(`{"hourly":{"temperature_2m":[10,11,12,13],"weather_code":[0,3,63,95]}}`))
	}))
	defer srv.Close()

	c := NewWeatherClient(srv.URL, srv.URL, testHTTPClient(), log.NewNopLogger())
	at := time.Date(2024, 3, 10, 2, 30, 0, 0, time.UTC)
	w, err := c.Historical(context.Background(), types.GeoPoint{Latitude: 1, Longitude: 2}, at)
	require.NoError(err)
	require.Equal("Rain", w.Conditions)
	require.Equal(12.0, w.TemperatureC)
}

func TestWeatherHistoricalMissingHour(t *testing.T) {
	require := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly":{"temperature_2m":[10],"weather_code":[0]}}`))
	}))
	defer srv.Close()

	c := NewWeatherClient(srv.URL, srv.URL, testHTTPClient(), log.NewNopLogger())
	at := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	_, err := c.Historical(context.Background(), types.GeoPoint{}, at)
	require.Error(err)
}

func TestWeatherCurrent(t *testing.T) {
	require := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal("temperature_2m,weather_code", r.URL.Query().Get("current"))
		w.Write([]byte(`{"current":{"temperature_2m":27.4,"weather_code":95}}`))
	}))
	defer srv.Close()

	c := NewWeatherClient(srv.URL, srv.URL, testHTTPClient(), log.NewNopLogger())
	w, err := c.Current(context.Background(), types.GeoPoint{Latitude: 1, Longitude: 2})
	require.NoError(err)
	require.Equal("Thunderstorm", w.Conditions)
	require.Equal(27.4, w.TemperatureC)
}

func TestConditionFromCode(t *testing.T) {
	require := require.New(t)

	require.Equal("Clear", conditionFromCode(0))
	require.Equal("Partly cloudy", conditionFromCode(2))
	require.Equal("Fog", conditionFromCode(45))
	require.Equal("Drizzle", conditionFromCode(51))
	require.Equal("Rain", conditionFromCode(63))
	require.Equal("Snow", conditionFromCode(73))
	require.Equal("Rain showers", conditionFromCode(80))
	require.Equal("Snow showers", conditionFromCode(85))
	require.Equal("Thunderstorm", conditionFromCode(95))
}

func TestNewsNearby(t *testing.T) {
	require := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal("/search", r.URL.Path)
		require.Equal("12.700,77.800", r.URL.Query().Get("near"))
		require.Equal("tok", r.URL.Query().Get("apikey"))
		w.Write([]byte(`{"articles":[{"title":"Flooding closes highway","url":"http://n/1"},{"title":"Relief camp opens","url":"http://n/2"}]}`))
	}))
	defer srv.Close()

	c := NewNewsClient(srv.URL, "tok", testHTTPClient(), log.NewNopLogger())
	headlines, err := c.Nearby(context.Background(), types.GeoPoint{Latitude: 12.7, Longitude: 77.8}, time.Now())
	require.NoError(err)
	require.Len(headlines, 2)
	require.Equal("Flooding closes highway", headlines[0].Title)
	require.Equal("http://n/1", headlines[0].URL)
}
