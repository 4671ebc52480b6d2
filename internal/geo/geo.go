// Package geo 提供请求时的位置偏置。无法定位不是错误条件，调用方会在没有位置时继续。
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/iWorld-y/propai/internal/model"
)

// ErrUnavailable 无法获取位置
var ErrUnavailable = errors.New("location unavailable")

// Locator 定位接口
type Locator interface {
	Locate(ctx context.Context) (model.Coordinates, error)
}

// None 从不返回位置
type None struct{}

func (None) Locate(context.Context) (model.Coordinates, error) {
	return model.Coordinates{}, ErrUnavailable
}

// Static 固定位置
type Static model.Coordinates

func (s Static) Locate(context.Context) (model.Coordinates, error) {
	return model.Coordinates(s), nil
}

// IPLocator 通过 IP 定位服务获取近似位置。
// 兼容 {"lat":..,"lon":..} (ip-api.com) 与 {"latitude":..,"longitude":..} (ipapi.co) 两种响应。
type IPLocator struct {
	endpoint string
	client   *http.Client
}

// NewIPLocator 创建 IP 定位客户端
func NewIPLocator(endpoint string) *IPLocator {
	return &IPLocator{endpoint: endpoint, client: http.DefaultClient}
}

type ipResponse struct {
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Locate implements Locator
func (l *IPLocator) Locate(ctx context.Context) (model.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("create request failed: %w", err)
	}
	res, err := l.client.Do(req)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: read body failed: %v", ErrUnavailable, err)
	}
	if res.StatusCode != http.StatusOK {
		return model.Coordinates{}, fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	}

	var r ipResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	switch {
	case r.Lat != nil && r.Lon != nil:
		return model.Coordinates{Lat: *r.Lat, Lng: *r.Lon}, nil
	case r.Latitude != nil && r.Longitude != nil:
		return model.Coordinates{Lat: *r.Latitude, Lng: *r.Longitude}, nil
	}
	return model.Coordinates{}, fmt.Errorf("%w: no coordinates in response", ErrUnavailable)
}

// New 根据提供方名称创建 Locator
func New(provider string, lat, lng float64, endpoint string) (Locator, error) {
	switch provider {
	case "", "none":
		return None{}, nil
	case "static":
		return Static{Lat: lat, Lng: lng}, nil
	case "ip":
		if endpoint == "" {
			return nil, fmt.Errorf("geo endpoint is missing")
		}
		return NewIPLocator(endpoint), nil
	}
	return nil, fmt.Errorf("unknown geo provider: %s", provider)
}
