package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"GameObservatory/internal/database"
	"GameObservatory/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

var testTime = time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local)

func sampleGame(igdbID int64) *model.GameMetadata {
	appID := int64(730)
	twitchID := "32399"
	return &model.GameMetadata{
		IGDBID:        igdbID,
		GameName:      "Counter-Strike 2",
		Slug:          "counter-strike-2",
		SteamAppID:    &appID,
		TwitchGameID:  &twitchID,
		DiscoveryDate: testTime,
		LastUpdated:   testTime,
		IsActive:      true,
		TrackSteam:    true,
		TrackTwitch:   true,
	}
}

func TestGameUpsertNoDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewGameRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, sampleGame(1905)))

	// 同igdb_id再次upsert：更新而非新增
	updated := sampleGame(1905)
	updated.GameName = "Counter-Strike 2 (Updated)"
	require.NoError(t, repo.Upsert(ctx, updated))

	var count int64
	require.NoError(t, db.Model(&model.GameMetadata{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := repo.GetByIGDBID(ctx, 1905)
	require.NoError(t, err)
	assert.Equal(t, "Counter-Strike 2 (Updated)", got.GameName)
}

func TestGameUpsertRejectsZeroID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGameRepository(db)

	err := repo.Upsert(context.Background(), &model.GameMetadata{GameName: "No Identity"})
	assert.Error(t, err)
}

func TestPlatformLookups(t *testing.T) {
	db := newTestDB(t)
	repo := NewGameRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, sampleGame(1905)))

	bySteam, err := repo.GetBySteamAppID(ctx, 730)
	require.NoError(t, err)
	assert.Equal(t, int64(1905), bySteam.IGDBID)

	byTwitch, err := repo.GetByTwitchGameID(ctx, "32399")
	require.NoError(t, err)
	assert.Equal(t, int64(1905), byTwitch.IGDBID)

	_, err = repo.GetBySteamAppID(ctx, 999999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestActiveGamesForFiltering(t *testing.T) {
	db := newTestDB(t)
	repo := NewGameRepository(db)
	ctx := context.Background()

	// 正常追踪
	require.NoError(t, repo.Upsert(ctx, sampleGame(1)))

	// 无steam映射
	noSteam := sampleGame(2)
	noSteam.SteamAppID = nil
	require.NoError(t, repo.Upsert(ctx, noSteam))

	// 关闭steam采集
	noTrack := sampleGame(3)
	noTrack.TrackSteam = false
	require.NoError(t, repo.Upsert(ctx, noTrack))

	// 已软下线
	inactive := sampleGame(4)
	inactive.IsActive = false
	require.NoError(t, repo.Upsert(ctx, inactive))

	steamList, err := repo.ActiveGamesFor(ctx, model.PlatformSteam)
	require.NoError(t, err)
	require.Len(t, steamList, 1)
	assert.Equal(t, int64(1), steamList[0].IGDBID)

	twitchList, err := repo.ActiveGamesFor(ctx, model.PlatformTwitch)
	require.NoError(t, err)
	assert.Len(t, twitchList, 3) // 1/2/3都有twitch映射且track_twitch开启

	igdbList, err := repo.ActiveGamesFor(ctx, model.PlatformIGDB)
	require.NoError(t, err)
	assert.Len(t, igdbList, 3, "igdb评分采集覆盖全部活跃游戏")
}

// 布尔列false必须原样落库：带default标签时gorm会在INSERT省略零值字段，
// false被数据库默认值顶回true，软下线与关闭追踪就失效了
func TestUpsertStoresFalseFlags(t *testing.T) {
	db := newTestDB(t)
	repo := NewGameRepository(db)
	ctx := context.Background()

	// 首次插入即为关闭状态
	dormant := sampleGame(7)
	dormant.IsActive = false
	dormant.TrackSteam = false
	dormant.TrackTwitch = false
	require.NoError(t, repo.Upsert(ctx, dormant))

	got, err := repo.GetByIGDBID(ctx, 7)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.False(t, got.TrackSteam)
	assert.False(t, got.TrackTwitch)

	// 已有行再upsert关闭：最新快照为准
	require.NoError(t, repo.Upsert(ctx, sampleGame(8)))
	off := sampleGame(8)
	off.TrackSteam = false
	require.NoError(t, repo.Upsert(ctx, off))

	got, err = repo.GetByIGDBID(ctx, 8)
	require.NoError(t, err)
	assert.False(t, got.TrackSteam)
	assert.True(t, got.TrackTwitch)
}

func TestListAllGamesUnpaginated(t *testing.T) {
	db := newTestDB(t)
	repo := NewGameRepository(db)
	ctx := context.Background()

	for i := int64(1); i <= 55; i++ {
		g := sampleGame(i)
		g.SteamAppID = nil
		g.TwitchGameID = nil
		require.NoError(t, repo.Upsert(ctx, g))
	}

	all, err := repo.ListAllGames(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 55, "全量读取不受分页钳制")

	paged, _, err := repo.ListGames(ctx, 1, 100000)
	require.NoError(t, err)
	assert.Len(t, paged, 50, "分页接口超界页大小钳到默认值")
}

func TestDeactivate(t *testing.T) {
	db := newTestDB(t)
	repo := NewGameRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, sampleGame(1905)))

	require.NoError(t, repo.Deactivate(ctx, 1905))

	got, err := repo.GetByIGDBID(ctx, 1905)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, repo.Deactivate(ctx, 404404), gorm.ErrRecordNotFound)
}

func TestInsertDiscoveredCounts(t *testing.T) {
	db := newTestDB(t)
	repo := NewGameRepository(db)
	ctx := context.Background()

	entries := []*model.GameListEntry{
		{IGDBID: 1, GameName: "A", DiscoveredAt: testTime, DiscoverySource: "igdb-popular", DiscoveryRank: 1},
		{IGDBID: 2, GameName: "B", DiscoveredAt: testTime, DiscoverySource: "igdb-popular", DiscoveryRank: 2},
	}
	inserted, skipped, err := repo.InsertDiscovered(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 0, skipped)

	// 再插一批，其中1个已知
	more := []*model.GameListEntry{
		{IGDBID: 2, GameName: "B", DiscoveredAt: testTime, DiscoverySource: "twitch-trending", DiscoveryRank: 5},
		{IGDBID: 3, GameName: "C", DiscoveredAt: testTime, DiscoverySource: "twitch-trending", DiscoveryRank: 6},
	}
	inserted, skipped, err = repo.InsertDiscovered(ctx, more)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, skipped)
}

func TestMetadataQueue(t *testing.T) {
	db := newTestDB(t)
	repo := NewGameRepository(db)
	ctx := context.Background()

	entries := []*model.GameListEntry{
		{IGDBID: 1, GameName: "A", DiscoveredAt: testTime, DiscoverySource: "igdb-popular"},
		{IGDBID: 2, GameName: "B", DiscoveredAt: testTime, DiscoverySource: "igdb-popular"},
	}
	_, _, err := repo.InsertDiscovered(ctx, entries)
	require.NoError(t, err)

	pending, err := repo.ListNeedingMetadata(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, repo.MarkMetadataCollected(ctx, 1))

	pending, err = repo.ListNeedingMetadata(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(2), pending[0].IGDBID)
}
