package model

// Twitch Helix 接口原生响应结构

// TwitchTokenResponse OAuth2 client_credentials 换取的token
type TwitchTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // 秒
	TokenType   string `json:"token_type"`
}

// TwitchStream /streams 返回的单条直播流
type TwitchStream struct {
	UserName    string `json:"user_name"`
	GameID      string `json:"game_id"`
	Title       string `json:"title"`
	ViewerCount int64  `json:"viewer_count"`
}

// TwitchStreamsResponse /streams 响应
type TwitchStreamsResponse struct {
	Data       []TwitchStream `json:"data"`
	Pagination struct {
		Cursor string `json:"cursor"`
	} `json:"pagination"`
}

// TwitchGame /games 与 /games/top 返回的游戏条目
type TwitchGame struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TwitchGamesResponse /games 与 /games/top 响应
type TwitchGamesResponse struct {
	Data []TwitchGame `json:"data"`
}

// TwitchViewership 单个游戏的当前观看汇总（由 /streams 聚合得出）
type TwitchViewership struct {
	GameID       string
	ViewerCount  int64
	ChannelCount int64
}
