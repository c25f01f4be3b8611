package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"cosmossdk.io/log"

	"github.com/narasim-teja/tars/resiliency"
	"github.com/narasim-teja/tars/types"
)

// GeocodeClient is a Nominatim-style reverse geocoder.
type GeocodeClient struct {
	Url    string
	cli    *resiliency.Client
	logger log.Logger
}

var _ Geocoder = &GeocodeClient{}

func NewGeocodeClient(serviceUrl string, cli *resiliency.Client, logger log.Logger) *GeocodeClient {
	return &GeocodeClient{
		Url:    serviceUrl,
		cli:    cli,
		logger: logger.With("module", "geocode"),
	}
}

type reverseGeocodeResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Road    string `json:"road"`
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

func (c *GeocodeClient) Reverse(ctx context.Context, point types.GeoPoint) (*types.LocationInfo, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", point.Latitude))
	q.Set("lon", fmt.Sprintf("%f", point.Longitude))
	q.Set("format", "json")
	var res reverseGeocodeResponse
	err := c.cli.DoJSON(ctx, http.MethodGet, c.Url+"/reverse?"+q.Encode(), nil, nil, &res)
	if err != nil {
		return nil, err
	}
	city := res.Address.City
	if city == "" {
		city = res.Address.Town
	}
	if city == "" {
		city = res.Address.Village
	}
	loc := &types.LocationInfo{
		Address: res.DisplayName,
		City:    city,
		State:   res.Address.State,
		Country: res.Address.Country,
	}
	return loc, nil
}

// WeatherClient resolves conditions from an Open-Meteo-style service with
// separate archive and current endpoints.
type WeatherClient struct {
	ArchiveUrl string
	CurrentUrl string
	cli        *resiliency.Client
	logger     log.Logger
}

var _ WeatherService = &WeatherClient{}

func NewWeatherClient(archiveUrl, currentUrl string, cli *resiliency.Client, logger log.Logger) *WeatherClient {
	return &WeatherClient{
		ArchiveUrl: archiveUrl,
		CurrentUrl: currentUrl,
		cli:        cli,
		logger:     logger.With("module", "weather"),
	}
}

type weatherResponse struct {
	Current struct {
		TemperatureC float64 `json:"temperature_2m"`
		WeatherCode  int     `json:"weather_code"`
	} `json:"current"`
	Hourly struct {
		TemperatureC []float64 `json:"temperature_2m"`
		WeatherCode  []int     `json:"weather_code"`
	} `json:"hourly"`
}

func (c *WeatherClient) Historical(ctx context.Context, point types.GeoPoint, at time.Time) (*types.WeatherInfo, error) {
	day := at.UTC().Format("2006-01-02")
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%f", point.Latitude))
	q.Set("longitude", fmt.Sprintf("%f", point.Longitude))
	q.Set("start_date", day)
	q.Set("end_date", day)
	q.Set("hourly", "temperature_2m,weather_code")
	var res weatherResponse
	err := c.cli.DoJSON(ctx, http.MethodGet, c.ArchiveUrl+"?"+q.Encode(), nil, nil, &res)
	if err != nil {
		return nil, err
	}
	hour := at.UTC().Hour()
	if hour >= len(res.Hourly.TemperatureC) || hour >= len(res.Hourly.WeatherCode) {
		return nil, fmt.Errorf("no hourly record for %s %02d:00", day, hour)
	}
	return &types.WeatherInfo{
		Conditions:   conditionFromCode(res.Hourly.WeatherCode[hour]),
		TemperatureC: res.Hourly.TemperatureC[hour],
	}, nil
}

func (c *WeatherClient) Current(ctx context.Context, point types.GeoPoint) (*types.WeatherInfo, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%f", point.Latitude))
	q.Set("longitude", fmt.Sprintf("%f", point.Longitude))
	q.Set("current", "temperature_2m,weather_code")
	var res weatherResponse
	err := c.cli.DoJSON(ctx, http.MethodGet, c.CurrentUrl+"?"+q.Encode(), nil, nil, &res)
	if err != nil {
		return nil, err
	}
	return &types.WeatherInfo{
		Conditions:   conditionFromCode(res.Current.WeatherCode),
		TemperatureC: res.Current.TemperatureC,
	}, nil
}

// conditionFromCode maps WMO weather interpretation codes to short labels.
func conditionFromCode(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code <= 3:
		return "Partly cloudy"
	case code <= 48:
		return "Fog"
	case code <= 57:
		return "Drizzle"
	case code <= 67:
		return "Rain"
	case code <= 77:
		return "Snow"
	case code <= 82:
		return "Rain showers"
	case code <= 86:
		return "Snow showers"
	default:
		return "Thunderstorm"
	}
}

// NewsClient searches a GNews-style service for headlines near a
// coordinate around a moment in time.
type NewsClient struct {
	Url    string
	apiKey string
	cli    *resiliency.Client
	logger log.Logger
}

var _ NewsService = &NewsClient{}

func NewNewsClient(serviceUrl, apiKey string, cli *resiliency.Client, logger log.Logger) *NewsClient {
	return &NewsClient{
		Url:    serviceUrl,
		apiKey: apiKey,
		cli:    cli,
		logger: logger.With("module", "news"),
	}
}

type newsResponse struct {
	Articles []struct {
		Title string `json:"title"`
		Url   string `json:"url"`
	} `json:"articles"`
}

func (c *NewsClient) Nearby(ctx context.Context, point types.GeoPoint, at time.Time) ([]types.Headline, error) {
	q := url.Values{}
	q.Set("near", fmt.Sprintf("%.3f,%.3f", point.Latitude, point.Longitude))
	q.Set("from", at.UTC().Add(-72*time.Hour).Format(time.RFC3339))
	q.Set("to", at.UTC().Add(24*time.Hour).Format(time.RFC3339))
	q.Set("max", fmt.Sprintf("%d", MaxHeadlines))
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}
	var res newsResponse
	err := c.cli.DoJSON(ctx, http.MethodGet, c.Url+"/search?"+q.Encode(), nil, nil, &res)
	if err != nil {
		return nil, err
	}
	headlines := make([]types.Headline, 0, len(res.Articles))
	for _, a := range res.Articles {
		headlines = append(headlines, types.Headline{Title: a.Title, URL: a.Url})
	}
	return headlines, nil
}
