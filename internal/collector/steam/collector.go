package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"GameObservatory/internal/collector"
	"GameObservatory/internal/config"
	"GameObservatory/internal/interfaces"
	"GameObservatory/internal/model"
	"GameObservatory/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Steam商店与SteamSpy没有走官方API域名，地址固定
const (
	storeAPIURL    = "https://store.steampowered.com/api"
	steamSpyAPIURL = "https://steamspy.com/api.php"
)

type Collector struct {
	cfg        *config.PlatformConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewSteamCollector(cfg *config.PlatformConfig, logger *logrus.Logger) interfaces.SteamCollector {
	return &Collector{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// GetPlayerCount 获取当前在线人数（GetNumberOfCurrentPlayers）
func (s *Collector) GetPlayerCount(ctx context.Context, appID int64) (int64, error) {
	reqURL := fmt.Sprintf("%s/ISteamUserStats/GetNumberOfCurrentPlayers/v1/?appid=%d", s.cfg.BaseURL, appID)

	var result model.SteamPlayerCountResponse
	err := collector.Retry(ctx, s.cfg.RetryCount, s.cfg.RetryDelay, s.logger, "steam玩家数", func() error {
		return s.getJSON(ctx, reqURL, &result)
	})
	if err != nil {
		return 0, err
	}
	if result.Response.Result != 1 {
		return 0, fmt.Errorf("steam返回result=%d，appid=%d可能已下架", result.Response.Result, appID)
	}
	return result.Response.PlayerCount, nil
}

// GetAppDetails 获取商店元数据。商店接口以appid字符串为键包一层map。
func (s *Collector) GetAppDetails(ctx context.Context, appID int64) (*model.SteamAppDetails, error) {
	reqURL := fmt.Sprintf("%s/appdetails?appids=%d", storeAPIURL, appID)

	var envelope map[string]model.SteamAppDetails
	err := collector.Retry(ctx, s.cfg.RetryCount, s.cfg.RetryDelay, s.logger, "steam商店详情", func() error {
		return s.getJSON(ctx, reqURL, &envelope)
	})
	if err != nil {
		return nil, err
	}

	details, ok := envelope[fmt.Sprintf("%d", appID)]
	if !ok || !details.Success {
		return nil, fmt.Errorf("steam商店无appid=%d的详情", appID)
	}
	return &details, nil
}

// GetAppTags 从SteamSpy获取标签→票数映射
func (s *Collector) GetAppTags(ctx context.Context, appID int64) (map[string]int, error) {
	reqURL := fmt.Sprintf("%s?request=appdetails&appid=%d", steamSpyAPIURL, appID)

	var details model.SteamSpyAppDetails
	err := collector.Retry(ctx, s.cfg.RetryCount, s.cfg.RetryDelay, s.logger, "steamspy标签", func() error {
		return s.getJSON(ctx, reqURL, &details)
	})
	if err != nil {
		return nil, err
	}
	return details.Tags, nil
}

func (s *Collector) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Errorf("关闭响应体失败: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("状态码%d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}
