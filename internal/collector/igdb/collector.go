package igdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"GameObservatory/internal/collector"
	"GameObservatory/internal/collector/auth"
	"GameObservatory/internal/config"
	"GameObservatory/internal/interfaces"
	"GameObservatory/internal/model"
	"GameObservatory/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// ErrNotFound IGDB查询无匹配记录
var ErrNotFound = errors.New("igdb: 未找到匹配记录")

// metadataFields /games 查询的完整元数据字段集
const metadataFields = "fields id,name,slug,summary,first_release_date,rating,aggregated_rating," +
	"total_rating_count,cover.url,genres.name,themes.name,platforms.name,game_modes.name," +
	"involved_companies.company.name,involved_companies.developer,involved_companies.publisher," +
	"websites.url,websites.category;"

// ratingFields 评分采集只取评分相关字段，降低响应体积
const ratingFields = "fields id,name,rating,aggregated_rating,total_rating_count;"

type Collector struct {
	cfg        *config.PlatformConfig
	httpClient *http.Client
	tokens     *auth.TokenSource
	logger     *logrus.Logger
}

func NewIGDBCollector(cfg *config.PlatformConfig, logger *logrus.Logger) interfaces.IGDBCollector {
	client := httpclient.NewHTTPClient(cfg, logger)
	return &Collector{
		cfg:        cfg,
		httpClient: client,
		tokens:     auth.NewTokenSource(cfg.AuthURL, cfg.ClientID, cfg.ClientSecret, client, logger),
		logger:     logger,
	}
}

// DiscoverPopular 按评分人数降序取头部游戏
func (g *Collector) DiscoverPopular(ctx context.Context, limit int) ([]model.IGDBGame, error) {
	query := fmt.Sprintf("%s where total_rating_count > 20; sort total_rating_count desc; limit %d;",
		metadataFields, limit)
	return g.queryGames(ctx, query)
}

// DiscoverRecent 最近daysBack天内发售、有一定评分量的新游戏
func (g *Collector) DiscoverRecent(ctx context.Context, limit, daysBack int) ([]model.IGDBGame, error) {
	query := fmt.Sprintf(
		"%s where first_release_date != null & first_release_date > %d & total_rating_count > 5; "+
			"sort first_release_date desc; limit %d;",
		metadataFields, recentCutoffUnix(daysBack), limit)
	return g.queryGames(ctx, query)
}

// DiscoverUpcoming 未来daysAhead天内将发售的游戏，按发售日升序
func (g *Collector) DiscoverUpcoming(ctx context.Context, limit, daysAhead int) ([]model.IGDBGame, error) {
	now := time.Now().Unix()
	query := fmt.Sprintf(
		"%s where first_release_date > %d & first_release_date < %d; "+
			"sort first_release_date asc; limit %d;",
		metadataFields, now, time.Now().AddDate(0, 0, daysAhead).Unix(), limit)
	return g.queryGames(ctx, query)
}

// DiscoverTopRated 评分人数达标的高分游戏
func (g *Collector) DiscoverTopRated(ctx context.Context, limit, minRatings int) ([]model.IGDBGame, error) {
	query := fmt.Sprintf("%s where rating != null & total_rating_count >= %d; sort rating desc; limit %d;",
		metadataFields, minRatings, limit)
	return g.queryGames(ctx, query)
}

// GetGameMetadata 按IGDB ID取完整元数据
func (g *Collector) GetGameMetadata(ctx context.Context, igdbID int64) (*model.IGDBGame, error) {
	games, err := g.queryGames(ctx, fmt.Sprintf("%s where id = %d;", metadataFields, igdbID))
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("%w: igdb_id=%d", ErrNotFound, igdbID)
	}
	return &games[0], nil
}

// GetGameRatings 按IGDB ID取当前评分快照
func (g *Collector) GetGameRatings(ctx context.Context, igdbID int64) (*model.IGDBGame, error) {
	games, err := g.queryGames(ctx, fmt.Sprintf("%s where id = %d;", ratingFields, igdbID))
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("%w: igdb_id=%d", ErrNotFound, igdbID)
	}
	return &games[0], nil
}

// GetExternalIDs 取游戏在外部平台的ID映射（平台名→uid）
func (g *Collector) GetExternalIDs(ctx context.Context, igdbID int64) (map[string]string, error) {
	query := fmt.Sprintf("fields game,uid,external_game_source; where game = %d; limit 50;", igdbID)

	var externals []model.IGDBExternalGame
	if err := g.query(ctx, "/external_games", query, &externals); err != nil {
		return nil, err
	}

	ids := make(map[string]string)
	for _, ext := range externals {
		platform, ok := model.IGDBExternalSource[ext.ExternalGameSource]
		if !ok {
			continue
		}
		// 同平台出现多条映射时保留第一条
		if _, exists := ids[platform]; !exists {
			ids[platform] = ext.UID
		}
	}
	return ids, nil
}

// FindIGDBIDBySteam 反查：Steam AppID → IGDB ID
func (g *Collector) FindIGDBIDBySteam(ctx context.Context, steamAppID int64) (int64, error) {
	query := fmt.Sprintf(`fields game; where uid = "%d" & external_game_source = 1; limit 1;`, steamAppID)
	return g.findGameID(ctx, query)
}

// FindIGDBIDByTwitch 反查：Twitch GameID → IGDB ID
func (g *Collector) FindIGDBIDByTwitch(ctx context.Context, twitchGameID string) (int64, error) {
	// uid来自Twitch接口返回的数字字符串，拼入查询前剥掉引号防止语法破坏
	sanitized := strings.NewReplacer(`"`, "", "\n", "", ";", "").Replace(twitchGameID)
	query := fmt.Sprintf(`fields game; where uid = "%s" & external_game_source = 14; limit 1;`, sanitized)
	return g.findGameID(ctx, query)
}

func (g *Collector) findGameID(ctx context.Context, query string) (int64, error) {
	var externals []model.IGDBExternalGame
	if err := g.query(ctx, "/external_games", query, &externals); err != nil {
		return 0, err
	}
	if len(externals) == 0 || externals[0].Game == 0 {
		return 0, ErrNotFound
	}
	return externals[0].Game, nil
}

func (g *Collector) queryGames(ctx context.Context, query string) ([]model.IGDBGame, error) {
	var games []model.IGDBGame
	if err := g.query(ctx, "/games", query, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// query 执行APIcalypse查询（POST纯文本body）。401刷新一次token重发，不计入重试预算。
func (g *Collector) query(ctx context.Context, endpoint, body string, out interface{}) error {
	return collector.Retry(ctx, g.cfg.RetryCount, g.cfg.RetryDelay, g.logger, "igdb"+endpoint, func() error {
		token, err := g.tokens.Token(ctx)
		if err != nil {
			return err
		}

		resp, err := g.doQuery(ctx, endpoint, body, token)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			g.drainAndClose(resp)
			g.logger.Warn("igdb返回401，刷新token后重发")
			token, err = g.tokens.Invalidate(ctx)
			if err != nil {
				return err
			}
			resp, err = g.doQuery(ctx, endpoint, body, token)
			if err != nil {
				return err
			}
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				g.logger.Errorf("关闭igdb响应体失败: %v", err)
			}
		}()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("状态码%d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("解析igdb响应失败: %w", err)
		}
		return nil
	})
}

func (g *Collector) doQuery(ctx context.Context, endpoint, body, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Client-ID", g.cfg.ClientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	return resp, nil
}

func (g *Collector) drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	if err := resp.Body.Close(); err != nil {
		g.logger.Errorf("关闭igdb响应体失败: %v", err)
	}
}

func recentCutoffUnix(daysBack int) int64 {
	return time.Now().AddDate(0, 0, -daysBack).Unix()
}
