package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"GameObservatory/internal/model"

	"github.com/sirupsen/logrus"
)

// expiryBuffer token到期前的提前刷新余量，避免在途请求拿到临期token
const expiryBuffer = 5 * time.Minute

// TokenSource Twitch OAuth2 client_credentials token缓存。
// Twitch Helix 与 IGDB v4 共用同一组 Twitch 开发者凭证，各自持有独立实例即可。
type TokenSource struct {
	authURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *logrus.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenSource(authURL, clientID, clientSecret string, httpClient *http.Client, logger *logrus.Logger) *TokenSource {
	return &TokenSource{
		authURL:      authURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
		logger:       logger,
	}
}

// Token 返回缓存的token，临期或未获取时先换取新token
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Now().Before(t.expiresAt.Add(-expiryBuffer)) {
		return t.token, nil
	}
	return t.refreshLocked(ctx)
}

// Invalidate 丢弃缓存token并立即换取新token。收到401时调用一次。
func (t *TokenSource) Invalidate(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.token = ""
	return t.refreshLocked(ctx)
}

func (t *TokenSource) refreshLocked(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_id", t.clientID)
	form.Set("client_secret", t.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("构建token请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("换取token失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.logger.Errorf("关闭token响应体失败: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("换取token失败: 状态码%d", resp.StatusCode)
	}

	var tokenResp model.TwitchTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("解析token响应失败: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token响应中access_token为空")
	}

	t.token = tokenResp.AccessToken
	t.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	t.logger.WithField("expires_in", tokenResp.ExpiresIn).Info("已刷新Twitch访问token")
	return t.token, nil
}
