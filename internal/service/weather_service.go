package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Weather 是养护页展示用的当前天气快照（华氏度）
type Weather struct {
	TemperatureF float64
	Humidity     int
	WindSpeedMph float64
	Description  string
	FrostWarning bool
	FetchedAt    time.Time
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// openMeteoResponse 对应 Open-Meteo 预报接口的响应子集
type openMeteoResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    int     `json:"relative_humidity_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		TemperatureMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
	Reason string `json:"reason"`
}

// WeatherService 查询当前天气并做 TTL 缓存，避免每次浏览养护页都打外部接口。
// Open-Meteo 免密钥，坐标来自站点设置或环境变量默认值。
type WeatherService struct {
	http    httpDoer
	baseURL string
	ttl     time.Duration

	mu        sync.Mutex
	cached    *Weather
	cachedKey string
}

// NewWeatherService 构造 WeatherService
func NewWeatherService() *WeatherService {
	return &WeatherService{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://api.open-meteo.com/v1",
		ttl:     30 * time.Minute,
	}
}

// SetHTTPClient 替换 HTTP 客户端，主要面向测试场景。
func (s *WeatherService) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.http = &http.Client{Timeout: 10 * time.Second}
		return
	}
	s.http = client
}

// SetBaseURL 覆盖接口基础地址，便于测试。
func (s *WeatherService) SetBaseURL(base string) {
	s.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

// Current 返回指定坐标的当前天气，命中缓存时不发请求。
// 任何失败都向调用方返回错误，由展示层决定是否降级为无天气信息。
func (s *WeatherService) Current(ctx context.Context, latitude, longitude float64) (*Weather, error) {
	key := fmt.Sprintf("%.4f,%.4f", latitude, longitude)

	s.mu.Lock()
	if s.cached != nil && s.cachedKey == key && time.Since(s.cached.FetchedAt) < s.ttl {
		cached := *s.cached
		s.mu.Unlock()
		return &cached, nil
	}
	s.mu.Unlock()

	endpoint := fmt.Sprintf(
		"%s/forecast?latitude=%.4f&longitude=%.4f&current=temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code&daily=temperature_2m_min&forecast_days=3&temperature_unit=fahrenheit&wind_speed_unit=mph&timezone=auto",
		s.baseURL, latitude, longitude,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "planted/1.0")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request weather api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}

	var payload openMeteoResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse weather response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		reason := strings.TrimSpace(payload.Reason)
		if reason == "" {
			reason = resp.Status
		}
		return nil, fmt.Errorf("weather api error: %s", reason)
	}

	weather := &Weather{
		TemperatureF: payload.Current.Temperature,
		Humidity:     payload.Current.Humidity,
		WindSpeedMph: payload.Current.WindSpeed,
		Description:  describeWeatherCode(payload.Current.WeatherCode),
		FrostWarning: hasFrostRisk(payload.Daily.TemperatureMin),
		FetchedAt:    time.Now(),
	}

	s.mu.Lock()
	s.cached = weather
	s.cachedKey = key
	s.mu.Unlock()

	copied := *weather
	return &copied, nil
}

// hasFrostRisk 判断未来几天最低温是否触及冰点（32°F）
func hasFrostRisk(dailyMin []float64) bool {
	for _, min := range dailyMin {
		if min <= 32 {
			return true
		}
	}
	return false
}

// describeWeatherCode 将 WMO 天气码换算成展示文案
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "晴"
	case code <= 3:
		return "多云"
	case code <= 48:
		return "雾"
	case code <= 57:
		return "毛毛雨"
	case code <= 67:
		return "雨"
	case code <= 77:
		return "雪"
	case code <= 82:
		return "阵雨"
	case code <= 86:
		return "阵雪"
	default:
		return "雷暴"
	}
}
