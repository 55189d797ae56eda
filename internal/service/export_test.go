package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"GameObservatory/internal/config"
	"GameObservatory/internal/model"
	"GameObservatory/internal/repository"
	"GameObservatory/internal/utils/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newExport(t *testing.T, db *gorm.DB, now time.Time) (*ExportService, string) {
	t.Helper()
	outDir := t.TempDir()
	cfg := &config.ExportConfig{
		OutputDir:     outDir,
		LatestDays:    7,
		WeeklyWindow:  12,
		MonthlyWindow: 12,
	}
	svc := NewExportService(repository.NewKPIRepository(db), repository.NewGameRepository(db),
		cfg, timeutil.FixedClock{T: now}, newTestLogger())
	return svc, outDir
}

func readExport(t *testing.T, dir, filename string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}

func seedGame(t *testing.T, db *gorm.DB, igdbID int64, name string, steamAppID *int64, twitchGameID *string) {
	t.Helper()
	repo := repository.NewGameRepository(db)
	require.NoError(t, repo.Upsert(context.Background(), &model.GameMetadata{
		IGDBID:        igdbID,
		GameName:      name,
		SteamAppID:    steamAppID,
		TwitchGameID:  twitchGameID,
		DiscoveryDate: testNow,
		LastUpdated:   testNow,
		IsActive:      true,
	}))
}

func TestUnifiedDailyOuterJoin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	kpiRepo := repository.NewKPIRepository(db)

	appCS := int64(730)
	twitchLOL := "21779"
	// 三个身份：只有steam数据、只有twitch数据、两边都有
	bothApp, bothTwitch := int64(570), "29595"
	seedGame(t, db, 1905, "CS Only", &appCS, nil)
	seedGame(t, db, 115, "LoL Only", nil, &twitchLOL)
	seedGame(t, db, 2963, "Dota Both", &bothApp, &bothTwitch)

	today := timeutil.StartOfDay(testNow)
	require.NoError(t, kpiRepo.UpsertSteamDaily(ctx, []*model.SteamDailyKPI{
		{Date: today, AppID: appCS, GameName: "CS Only", AvgCCU: 100, PeakCCU: 150, MinCCU: 50, Samples: 24},
		{Date: today, AppID: bothApp, GameName: "Dota Both", AvgCCU: 500, PeakCCU: 800, MinCCU: 300, Samples: 24},
	}))
	require.NoError(t, kpiRepo.UpsertTwitchDaily(ctx, []*model.TwitchDailyKPI{
		{Date: today, TwitchGameID: twitchLOL, GameName: "LoL Only", AvgViewers: 9000, PeakViewers: 12000, MinViewers: 6000, AvgChannels: 40, Samples: 24},
		{Date: today, TwitchGameID: bothTwitch, GameName: "Dota Both", AvgViewers: 7000, PeakViewers: 9000, MinViewers: 5000, AvgChannels: 30, Samples: 24},
	}))

	svc, outDir := newExport(t, db, testNow)
	require.NoError(t, svc.ExportAll(ctx))

	payload := readExport(t, outDir, fileUnifiedDaily)
	rows, ok := payload["rows"].([]interface{})
	require.True(t, ok)
	require.Len(t, rows, 3, "全外连接应覆盖三个身份")

	byID := make(map[float64]map[string]interface{})
	for _, raw := range rows {
		row := raw.(map[string]interface{})
		byID[row["igdb_id"].(float64)] = row
	}

	csRow := byID[1905]
	assert.NotNil(t, csRow["steam"])
	assert.Nil(t, csRow["twitch"], "无twitch数据的行该侧应为null")

	lolRow := byID[115]
	assert.Nil(t, lolRow["steam"])
	assert.NotNil(t, lolRow["twitch"])

	dotaRow := byID[2963]
	assert.NotNil(t, dotaRow["steam"])
	assert.NotNil(t, dotaRow["twitch"])

	// 同日期按跨平台最高峰值降序：LoL 12000 > Dota 9000 > CS 150
	first := rows[0].(map[string]interface{})
	second := rows[1].(map[string]interface{})
	third := rows[2].(map[string]interface{})
	assert.Equal(t, float64(115), first["igdb_id"])
	assert.Equal(t, float64(2963), second["igdb_id"])
	assert.Equal(t, float64(1905), third["igdb_id"])
}

func TestUnifiedDailyNewestDateFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	kpiRepo := repository.NewKPIRepository(db)

	appCS := int64(730)
	seedGame(t, db, 1905, "CS", &appCS, nil)

	today := timeutil.StartOfDay(testNow)
	yesterday := today.AddDate(0, 0, -1)
	require.NoError(t, kpiRepo.UpsertSteamDaily(ctx, []*model.SteamDailyKPI{
		{Date: yesterday, AppID: appCS, GameName: "CS", AvgCCU: 90, PeakCCU: 9000, MinCCU: 40, Samples: 24},
		{Date: today, AppID: appCS, GameName: "CS", AvgCCU: 100, PeakCCU: 150, MinCCU: 50, Samples: 24},
	}))

	svc, outDir := newExport(t, db, testNow)
	require.NoError(t, svc.ExportAll(ctx))

	payload := readExport(t, outDir, fileUnifiedDaily)
	rows := payload["rows"].([]interface{})
	require.Len(t, rows, 2)

	first := rows[0].(map[string]interface{})
	second := rows[1].(map[string]interface{})
	assert.Equal(t, today.Format(dateLayout), first["date"], "最新日期排在最前，不看峰值大小")
	assert.Equal(t, yesterday.Format(dateLayout), second["date"])
}

func TestExportRankingsOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	kpiRepo := repository.NewKPIRepository(db)

	today := timeutil.StartOfDay(testNow)
	require.NoError(t, kpiRepo.UpsertSteamDaily(ctx, []*model.SteamDailyKPI{
		{Date: today.AddDate(0, 0, -1), AppID: 730, GameName: "Game A", AvgCCU: 100, PeakCCU: 1000, MinCCU: 50, Samples: 24},
		{Date: today, AppID: 730, GameName: "Game A", AvgCCU: 120, PeakCCU: 3000, MinCCU: 60, Samples: 24},
		{Date: today, AppID: 570, GameName: "Game B", AvgCCU: 500, PeakCCU: 5000, MinCCU: 300, Samples: 24},
	}))

	svc, outDir := newExport(t, db, testNow)
	require.NoError(t, svc.ExportAll(ctx))

	payload := readExport(t, outDir, fileGameRankings)
	rankings := payload["rankings"].([]interface{})
	require.Len(t, rankings, 2)

	top := rankings[0].(map[string]interface{})
	assert.Equal(t, "Game B", top["game_name"], "日峰值均值最高的排第一")
	assert.Equal(t, float64(1), top["rank"])
	assert.Equal(t, float64(5000), top["all_time_peak_ccu"])

	second := rankings[1].(map[string]interface{})
	assert.Equal(t, "Game A", second["game_name"])
	assert.InDelta(t, 2000.0, second["avg_peak_ccu"].(float64), 1e-6)
	assert.Equal(t, float64(2), second["days_tracked"])
}

func TestLatestWindowExcludesOldDays(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	kpiRepo := repository.NewKPIRepository(db)

	today := timeutil.StartOfDay(testNow)
	require.NoError(t, kpiRepo.UpsertSteamDaily(ctx, []*model.SteamDailyKPI{
		{Date: today, AppID: 730, GameName: "Recent", AvgCCU: 1, PeakCCU: 1, MinCCU: 1, Samples: 1},
		{Date: today.AddDate(0, 0, -30), AppID: 570, GameName: "Old", AvgCCU: 2, PeakCCU: 2, MinCCU: 2, Samples: 1},
	}))

	svc, outDir := newExport(t, db, testNow)
	require.NoError(t, svc.ExportAll(ctx))

	latest := readExport(t, outDir, fileLatestKPIs)
	assert.Len(t, latest["steam"].([]interface{}), 1, "latest只含窗口内的天桶")

	daily := readExport(t, outDir, fileDailyKPIs)
	assert.Len(t, daily["steam"].([]interface{}), 2, "daily全量导出")
}

func TestSafeFloatSanitizesNonFinite(t *testing.T) {
	assert.Nil(t, safeFloat(math.NaN()))
	assert.Nil(t, safeFloat(math.Inf(1)))
	assert.Nil(t, safeFloat(math.Inf(-1)))
	require.NotNil(t, safeFloat(42.5))
	assert.Equal(t, 42.5, *safeFloat(42.5))

	assert.Nil(t, safeFloatPtr(nil))
	nan := math.NaN()
	assert.Nil(t, safeFloatPtr(&nan))
}

func TestExportCoversIdentitiesBeyondOnePage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	kpiRepo := repository.NewKPIRepository(db)

	// 55个身份，只有按名称排序最靠后的那个有steam天桶
	lastApp := int64(990055)
	for i := 1; i <= 55; i++ {
		igdbID := int64(5000 + i)
		name := fmt.Sprintf("Game %03d", i)
		if i == 55 {
			seedGame(t, db, igdbID, name, &lastApp, nil)
		} else {
			seedGame(t, db, igdbID, name, nil, nil)
		}
	}
	today := timeutil.StartOfDay(testNow)
	require.NoError(t, kpiRepo.UpsertSteamDaily(ctx, []*model.SteamDailyKPI{
		{Date: today, AppID: lastApp, GameName: "Game 055", AvgCCU: 10, PeakCCU: 20, MinCCU: 5, Samples: 4},
	}))

	svc, outDir := newExport(t, db, testNow)
	require.NoError(t, svc.ExportAll(ctx))

	unified := readExport(t, outDir, fileUnifiedDaily)
	rows := unified["rows"].([]interface{})
	require.Len(t, rows, 1, "超出一页的身份也要进统一视图")
	row := rows[0].(map[string]interface{})
	assert.Equal(t, float64(5055), row["igdb_id"])

	meta := readExport(t, outDir, fileGameMetadata)
	assert.Equal(t, float64(55), meta["total"])
	assert.Len(t, meta["games"].([]interface{}), 55)
}

func TestExportWritesAllFiles(t *testing.T) {
	db := newTestDB(t)
	svc, outDir := newExport(t, db, testNow)
	require.NoError(t, svc.ExportAll(context.Background()))

	for _, name := range []string{
		fileLatestKPIs, fileDailyKPIs, fileWeeklyKPIs, fileMonthlyKPIs,
		fileGameRankings, fileGameMetadata, fileUnifiedDaily,
	} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
}
