package enrich

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/narasim-teja/tars/resiliency"
	"github.com/narasim-teja/tars/types"
)

type fakeGeocoder struct {
	loc *types.LocationInfo
	err error
}

func (f *fakeGeocoder) Reverse(ctx context.Context, point types.GeoPoint) (*types.LocationInfo, error) {
	return f.loc, f.err
}

type fakeWeather struct {
	historical    *types.WeatherInfo
	historicalErr error
	current       *types.WeatherInfo
	currentErr    error
	currentCalls  int
}

func (f *fakeWeather) Historical(ctx context.Context, point types.GeoPoint, at time.Time) (*types.WeatherInfo, error) {
	return f.historical, f.historicalErr
}

func (f *fakeWeather) Current(ctx context.Context, point types.GeoPoint) (*types.WeatherInfo, error) {
	f.currentCalls++
	return f.current, f.currentErr
}

type fakeNews struct {
	headlines []types.Headline
	err       error
}

func (f *fakeNews) Nearby(ctx context.Context, point types.GeoPoint, at time.Time) ([]types.Headline, error) {
	return f.headlines, f.err
}

func locatedEvidence() *types.Evidence {
	return &types.Evidence{
		ContentHash: common.HexToHash("0x01"),
		Canonical:   []byte{1},
		Meta: types.CaptureMetadata{
			Timestamp: time.Now().Add(-2 * time.Hour),
			Location:  &types.GeoPoint{Latitude: 12.97, Longitude: 77.59},
		},
	}
}

func TestEnrichSkippedWithoutLocation(t *testing.T) {
	require := require.New(t)
	o := NewOrchestrator(&fakeGeocoder{}, &fakeWeather{}, &fakeNews{}, log.NewNopLogger())

	ev := locatedEvidence()
	ev.Meta.Location = nil
	rec := o.Enrich(context.Background(), ev)
	require.True(rec.Skipped)
	require.Nil(rec.Location)
	require.Nil(rec.Weather)
	require.Nil(rec.News)
}

func TestEnrichAllPresent(t *testing.T) {
	require := require.New(t)
	o := NewOrchestrator(
		&fakeGeocoder{loc: &types.LocationInfo{City: "Bengaluru", Country: "India"}},
		&fakeWeather{historical: &types.WeatherInfo{Conditions: "Clear sky", TemperatureC: 24.5}},
		&fakeNews{headlines: []types.Headline{{Title: "Local flooding", URL: "http://example.com/1"}}},
		log.NewNopLogger(),
	)

	rec := o.Enrich(context.Background(), locatedEvidence())
	require.False(rec.Skipped)
	require.Equal("Bengaluru", rec.Location.City)
	require.Equal("Clear sky", rec.Weather.Conditions)
	require.False(rec.Weather.Fallback)
	require.Len(rec.News, 1)
}

func TestEnrichFailureIsAbsentNotSkipped(t *testing.T) {
	require := require.New(t)
	o := NewOrchestrator(
		&fakeGeocoder{err: errors.New("timeout")},
		&fakeWeather{historicalErr: &resiliency.HTTPError{Status: http.StatusInternalServerError}},
		&fakeNews{headlines: []types.Headline{{Title: "t", URL: "u"}}},
		log.NewNopLogger(),
	)

	rec := o.Enrich(context.Background(), locatedEvidence())
	require.False(rec.Skipped)
	require.Nil(rec.Location)
	require.Nil(rec.Weather)
	require.Len(rec.News, 1)
}

func TestEnrichWeatherDeniedFallsBackToCurrent(t *testing.T) {
	require := require.New(t)
	w := &fakeWeather{
		historicalErr: &resiliency.HTTPError{Status: http.StatusForbidden},
		current:       &types.WeatherInfo{Conditions: "Rain", TemperatureC: 19},
	}
	o := NewOrchestrator(nil, w, nil, log.NewNopLogger())

	rec := o.Enrich(context.Background(), locatedEvidence())
	require.Equal(1, w.currentCalls)
	require.NotNil(rec.Weather)
	require.True(rec.Weather.Fallback)
	require.Equal("Rain", rec.Weather.Conditions)
}

func TestEnrichWeatherTransientErrorDoesNotFallBack(t *testing.T) {
	require := require.New(t)
	w := &fakeWeather{
		historicalErr: &resiliency.HTTPError{Status: http.StatusTooManyRequests},
		current:       &types.WeatherInfo{Conditions: "Rain"},
	}
	o := NewOrchestrator(nil, w, nil, log.NewNopLogger())

	rec := o.Enrich(context.Background(), locatedEvidence())
	require.Equal(0, w.currentCalls)
	require.Nil(rec.Weather)
}

func TestEnrichNilCollaborators(t *testing.T) {
	require := require.New(t)
	o := NewOrchestrator(nil, nil, nil, log.NewNopLogger())

	rec := o.Enrich(context.Background(), locatedEvidence())
	require.False(rec.Skipped)
	require.Nil(rec.Location)
	require.Nil(rec.Weather)
	require.Nil(rec.News)
}
