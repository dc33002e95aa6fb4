package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"salesrouter-data/internal/config"
	"salesrouter-data/internal/domain"
	"salesrouter-data/internal/geo"
	"salesrouter-data/internal/repository"
	"salesrouter-data/internal/store"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	ErrEmptyAddress = errors.New("empty address")
	ErrNoGeocode    = errors.New("address could not be geocoded")
)

// Coordinate is a resolved address plus the provider that resolved it.
type Coordinate struct {
	Lat    float64
	Lon    float64
	Origem string
}

// Geocoder resolves addresses (distribution centers, locality names) to
// coordinates. Lookup order: hot KV tier, durable cache table, Nominatim,
// then Google when a key is configured. Provider results that land on a
// known fallback point count as misses.
type Geocoder struct {
	client *resty.Client
	cfg    config.GeocoderConfig
	kv     store.KV                          // optional hot tier
	cache  repository.GeocodeCacheRepository // optional durable tier
	logger *zap.Logger
}

func NewGeocoder(cfg config.GeocoderConfig, kv store.KV, cache repository.GeocodeCacheRepository, logger *zap.Logger) *Geocoder {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)
	return &Geocoder{client: client, cfg: cfg, kv: kv, cache: cache, logger: logger}
}

const kvTTL = 7 * 24 * time.Hour

func kvKey(endereco string) string { return "geocode:" + endereco }

// Resolve geocodes one address.
func (g *Geocoder) Resolve(ctx context.Context, endereco string) (*Coordinate, error) {
	endereco = strings.TrimSpace(endereco)
	if endereco == "" {
		return nil, ErrEmptyAddress
	}

	if coord := g.fromHotTier(ctx, endereco); coord != nil {
		return coord, nil
	}
	if coord := g.fromDurableTier(ctx, endereco); coord != nil {
		return coord, nil
	}

	if coord, err := g.fromNominatim(ctx, endereco); err == nil {
		g.saveCaches(ctx, endereco, coord)
		return coord, nil
	} else if !errors.Is(err, ErrNoGeocode) {
		g.logger.Warn("nominatim lookup failed", zap.String("endereco", endereco), zap.Error(err))
	}

	if g.cfg.GoogleKey != "" {
		if coord, err := g.fromGoogle(ctx, endereco); err == nil {
			g.saveCaches(ctx, endereco, coord)
			return coord, nil
		} else if !errors.Is(err, ErrNoGeocode) {
			g.logger.Warn("google lookup failed", zap.String("endereco", endereco), zap.Error(err))
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoGeocode, endereco)
}

func (g *Geocoder) fromHotTier(ctx context.Context, endereco string) *Coordinate {
	if g.kv == nil {
		return nil
	}
	raw, err := g.kv.Get(ctx, kvKey(endereco))
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			g.logger.Warn("geocode kv read failed", zap.Error(err))
		}
		return nil
	}
	var coord Coordinate
	if err := json.Unmarshal([]byte(raw), &coord); err != nil {
		return nil
	}
	if geo.GenericCoordinate(coord.Lat, coord.Lon) {
		return nil
	}
	coord.Origem = domain.GeocodeOriginCache
	return &coord
}

func (g *Geocoder) fromDurableTier(ctx context.Context, endereco string) *Coordinate {
	if g.cache == nil {
		return nil
	}
	entry, err := g.cache.Lookup(ctx, endereco)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			g.logger.Warn("geocode cache read failed", zap.Error(err))
		}
		return nil
	}
	if geo.GenericCoordinate(entry.Lat, entry.Lon) {
		return nil
	}
	coord := &Coordinate{Lat: entry.Lat, Lon: entry.Lon, Origem: domain.GeocodeOriginCache}
	g.warmHotTier(ctx, endereco, coord)
	return coord
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *Geocoder) fromNominatim(ctx context.Context, endereco string) (*Coordinate, error) {
	var results []nominatimResult
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":              endereco,
			"format":         "json",
			"countrycodes":   g.cfg.CountryCodes,
			"addressdetails": "1",
		}).
		SetResult(&results).
		Get(g.cfg.NominatimURL)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() || len(results) == 0 {
		return nil, ErrNoGeocode
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLon != nil || geo.GenericCoordinate(lat, lon) {
		return nil, ErrNoGeocode
	}
	return &Coordinate{Lat: lat, Lon: lon, Origem: domain.GeocodeOriginNominatim}, nil
}

type googleResult struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *Geocoder) fromGoogle(ctx context.Context, endereco string) (*Coordinate, error) {
	var result googleResult
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"address": endereco,
			"key":     g.cfg.GoogleKey,
		}).
		SetResult(&result).
		Get(g.cfg.GoogleURL)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() || result.Status != "OK" || len(result.Results) == 0 {
		return nil, ErrNoGeocode
	}

	loc := result.Results[0].Geometry.Location
	if geo.GenericCoordinate(loc.Lat, loc.Lng) {
		return nil, ErrNoGeocode
	}
	return &Coordinate{Lat: loc.Lat, Lon: loc.Lng, Origem: domain.GeocodeOriginGoogle}, nil
}

func (g *Geocoder) saveCaches(ctx context.Context, endereco string, coord *Coordinate) {
	if g.cache != nil {
		entry := &domain.GeocodeEntry{
			Endereco: endereco,
			Lat:      coord.Lat,
			Lon:      coord.Lon,
			Origem:   coord.Origem,
		}
		if err := g.cache.Save(ctx, entry); err != nil {
			g.logger.Warn("failed to save geocode cache", zap.String("endereco", endereco), zap.Error(err))
		}
	}
	g.warmHotTier(ctx, endereco, coord)
}

func (g *Geocoder) warmHotTier(ctx context.Context, endereco string, coord *Coordinate) {
	if g.kv == nil {
		return
	}
	b, err := json.Marshal(coord)
	if err != nil {
		return
	}
	if err := g.kv.Set(ctx, kvKey(endereco), string(b), kvTTL); err != nil {
		g.logger.Warn("failed to warm geocode kv", zap.String("endereco", endereco), zap.Error(err))
	}
}
