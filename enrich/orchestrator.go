package enrich

import (
	"context"
	"sync"
	"time"

	"cosmossdk.io/log"

	"github.com/narasim-teja/tars/resiliency"
	"github.com/narasim-teja/tars/types"
)

// MaxHeadlines caps the related-news list in a context record.
const MaxHeadlines = 3

// Geocoder resolves a coordinate pair to a place.
type Geocoder interface {
	Reverse(ctx context.Context, point types.GeoPoint) (*types.LocationInfo, error)
}

// WeatherService reports conditions at a place, either at a past moment or
// right now.
type WeatherService interface {
	Historical(ctx context.Context, point types.GeoPoint, at time.Time) (*types.WeatherInfo, error)
	Current(ctx context.Context, point types.GeoPoint) (*types.WeatherInfo, error)
}

// NewsService finds headlines near a place around a moment in time.
type NewsService interface {
	Nearby(ctx context.Context, point types.GeoPoint, at time.Time) ([]types.Headline, error)
}

// Orchestrator fans out to the three context collaborators and assembles a
// unified record. A collaborator failure degrades its own field to absent
// and never blocks or cancels the siblings.
type Orchestrator struct {
	geocoder Geocoder
	weather  WeatherService
	news     NewsService
	logger   log.Logger
}

func NewOrchestrator(geocoder Geocoder, weather WeatherService, news NewsService, logger log.Logger) *Orchestrator {
	return &Orchestrator{
		geocoder: geocoder,
		weather:  weather,
		news:     news,
		logger:   logger.With("module", "enrich"),
	}
}

// Enrich runs the place, weather and news lookups concurrently. Without a
// geolocation all lookups are skipped outright, which the record marks as
// distinct from "attempted and absent".
func (o *Orchestrator) Enrich(ctx context.Context, ev *types.Evidence) *types.ContextRecord {
	rec := &types.ContextRecord{}
	if ev.Meta.Location == nil {
		rec.Skipped = true
		o.logger.Info("enrichment skipped, no geolocation", "hash", ev.ContentHash.Hex())
		return rec
	}
	point := *ev.Meta.Location
	at := ev.Meta.Timestamp

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		if o.geocoder == nil {
			return
		}
		loc, err := o.geocoder.Reverse(ctx, point)
		if err != nil {
			o.logger.Info("place lookup absent", "err", err)
			return
		}
		rec.Location = loc
	}()

	go func() {
		defer wg.Done()
		rec.Weather = o.lookupWeather(ctx, point, at)
	}()

	go func() {
		defer wg.Done()
		if o.news == nil {
			return
		}
		headlines, err := o.news.Nearby(ctx, point, at)
		if err != nil {
			o.logger.Info("news lookup absent", "err", err)
			return
		}
		if len(headlines) > MaxHeadlines {
			headlines = headlines[:MaxHeadlines]
		}
		rec.News = headlines
	}()

	wg.Wait()
	return rec
}

// lookupWeather tries the historical record at the capture timestamp
// first. An access-denied failure (not a transient one) falls back to
// current conditions and marks the record accordingly.
func (o *Orchestrator) lookupWeather(ctx context.Context, point types.GeoPoint, at time.Time) *types.WeatherInfo {
	if o.weather == nil {
		return nil
	}
	w, err := o.weather.Historical(ctx, point, at)
	if err == nil {
		return w
	}
	if !resiliency.IsDenied(err) {
		o.logger.Info("weather lookup absent", "err", err)
		return nil
	}
	o.logger.Info("historical weather denied, falling back to current", "err", err)
	w, err = o.weather.Current(ctx, point)
	if err != nil {
		o.logger.Info("weather fallback absent", "err", err)
		return nil
	}
	w.Fallback = true
	return w
}
