package model

// IGDB v4 接口原生响应结构（APIcalypse 查询，POST 纯文本）

// IGDBGame /games 返回的游戏记录（按查询的 fields 子集填充）
type IGDBGame struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	Summary          string   `json:"summary"`
	FirstReleaseDate int64    `json:"first_release_date"` // Unix秒
	Rating           *float64 `json:"rating"`
	AggregatedRating *float64 `json:"aggregated_rating"`
	TotalRatingCount *int64   `json:"total_rating_count"`
	Cover            *struct {
		URL string `json:"url"`
	} `json:"cover"`
	Genres    []IGDBNamed `json:"genres"`
	Themes    []IGDBNamed `json:"themes"`
	Platforms []IGDBNamed `json:"platforms"`
	GameModes []IGDBNamed `json:"game_modes"`
	InvolvedCompanies []struct {
		Company   IGDBNamed `json:"company"`
		Developer bool      `json:"developer"`
		Publisher bool      `json:"publisher"`
	} `json:"involved_companies"`
	Websites []struct {
		URL      string `json:"url"`
		Category int    `json:"category"`
	} `json:"websites"`
}

// IGDBNamed 只含name的嵌套引用
type IGDBNamed struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// IGDBExternalGame /external_games 返回的外部平台映射
type IGDBExternalGame struct {
	ID                 int64  `json:"id"`
	Game               int64  `json:"game"`
	UID                string `json:"uid"`
	ExternalGameSource int    `json:"external_game_source"`
	Name               string `json:"name"`
}

// IGDBExternalSource external_game_source 枚举值 → 平台名
var IGDBExternalSource = map[int]string{
	1:  "steam",
	5:  "gog",
	10: "youtube",
	14: "twitch",
	26: "epic",
}

// IGDBWebsiteCategory websites.category 枚举值 → 分类名
var IGDBWebsiteCategory = map[int]string{
	1:  "official",
	2:  "wikia",
	3:  "wikipedia",
	4:  "facebook",
	5:  "twitter",
	6:  "twitch",
	8:  "instagram",
	9:  "youtube",
	13: "steam",
	14: "reddit",
	15: "itch",
	16: "epicgames",
	17: "gog",
	18: "discord",
}
