package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"GameObservatory/internal/collector"
	"GameObservatory/internal/collector/auth"
	"GameObservatory/internal/config"
	"GameObservatory/internal/interfaces"
	"GameObservatory/internal/model"
	"GameObservatory/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// maxStreamPages 单个游戏翻页上限（每页100条），头部游戏频道数以千计，再往后是长尾
const maxStreamPages = 10

type Collector struct {
	cfg        *config.PlatformConfig
	httpClient *http.Client
	tokens     *auth.TokenSource
	logger     *logrus.Logger
}

func NewTwitchCollector(cfg *config.PlatformConfig, logger *logrus.Logger) interfaces.TwitchCollector {
	client := httpclient.NewHTTPClient(cfg, logger)
	return &Collector{
		cfg:        cfg,
		httpClient: client,
		tokens:     auth.NewTokenSource(cfg.AuthURL, cfg.ClientID, cfg.ClientSecret, client, logger),
		logger:     logger,
	}
}

// GetGameViewership 汇总单个游戏的当前观看数据：翻页拉取/streams，累加观众数并计数频道
func (t *Collector) GetGameViewership(ctx context.Context, twitchGameID string) (*model.TwitchViewership, error) {
	result := &model.TwitchViewership{GameID: twitchGameID}
	cursor := ""

	for page := 0; page < maxStreamPages; page++ {
		params := url.Values{}
		params.Set("game_id", twitchGameID)
		params.Set("first", "100")
		if cursor != "" {
			params.Set("after", cursor)
		}
		reqURL := fmt.Sprintf("%s/streams?%s", t.cfg.BaseURL, params.Encode())

		var streamsResp model.TwitchStreamsResponse
		err := collector.Retry(ctx, t.cfg.RetryCount, t.cfg.RetryDelay, t.logger, "twitch直播流", func() error {
			return t.getJSON(ctx, reqURL, &streamsResp)
		})
		if err != nil {
			return nil, err
		}

		for _, stream := range streamsResp.Data {
			result.ViewerCount += stream.ViewerCount
			result.ChannelCount++
		}

		cursor = streamsResp.Pagination.Cursor
		if cursor == "" || len(streamsResp.Data) == 0 {
			break
		}
		if err := collector.Throttle(ctx, t.cfg.RequestDelay); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// TopGames 获取当前热门游戏榜，用于发现新游戏
func (t *Collector) TopGames(ctx context.Context, limit int) ([]model.TwitchGame, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	reqURL := fmt.Sprintf("%s/games/top?first=%d", t.cfg.BaseURL, limit)

	var gamesResp model.TwitchGamesResponse
	err := collector.Retry(ctx, t.cfg.RetryCount, t.cfg.RetryDelay, t.logger, "twitch热门榜", func() error {
		return t.getJSON(ctx, reqURL, &gamesResp)
	})
	if err != nil {
		return nil, err
	}
	return gamesResp.Data, nil
}

// getJSON 带认证头请求Helix接口。401时刷新一次token立即重发，不计入重试预算。
func (t *Collector) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	token, err := t.tokens.Token(ctx)
	if err != nil {
		return err
	}

	resp, err := t.doAuthed(ctx, reqURL, token)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		t.drainAndClose(resp)
		t.logger.Warn("twitch返回401，刷新token后重发")
		token, err = t.tokens.Invalidate(ctx)
		if err != nil {
			return err
		}
		resp, err = t.doAuthed(ctx, reqURL, token)
		if err != nil {
			return err
		}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.logger.Errorf("关闭twitch响应体失败: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("状态码%d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析twitch响应失败: %w", err)
	}
	return nil
}

func (t *Collector) doAuthed(ctx context.Context, reqURL, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Client-Id", t.cfg.ClientID)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	return resp, nil
}

func (t *Collector) drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	if err := resp.Body.Close(); err != nil {
		t.logger.Errorf("关闭twitch响应体失败: %v", err)
	}
}
