package model

// Steam 官方与第三方接口的原生响应结构

// SteamPlayerCountResponse GetNumberOfCurrentPlayers 响应
type SteamPlayerCountResponse struct {
	Response struct {
		PlayerCount int64 `json:"player_count"` // 当前在线人数
		Result      int   `json:"result"`       // 1=成功
	} `json:"response"`
}

// SteamAppDetails Steam商店 appdetails 接口单个应用的数据体
type SteamAppDetails struct {
	Success bool `json:"success"`
	Data    struct {
		Name             string   `json:"name"`
		Type             string   `json:"type"`
		ShortDescription string   `json:"short_description"`
		Developers       []string `json:"developers"`
		Publishers       []string `json:"publishers"`
		IsFree           bool     `json:"is_free"`
		RequiredAge      int      `json:"required_age"`
		ReleaseDate      struct {
			Date string `json:"date"`
		} `json:"release_date"`
		Platforms struct {
			Windows bool `json:"windows"`
			Mac     bool `json:"mac"`
			Linux   bool `json:"linux"`
		} `json:"platforms"`
		Metacritic struct {
			Score int    `json:"score"`
			URL   string `json:"url"`
		} `json:"metacritic"`
		Genres []struct {
			Description string `json:"description"`
		} `json:"genres"`
		Categories []struct {
			Description string `json:"description"`
		} `json:"categories"`
	} `json:"data"`
}

// SteamSpyAppDetails SteamSpy appdetails 响应（tags为标签→票数）
type SteamSpyAppDetails struct {
	AppID int64          `json:"appid"`
	Name  string         `json:"name"`
	Tags  map[string]int `json:"tags"`
}
