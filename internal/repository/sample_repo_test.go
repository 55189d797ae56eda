package repository

import (
	"context"
	"testing"
	"time"

	"GameObservatory/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSteamSampleUpsertLastWriteWins(t *testing.T) {
	db := newTestDB(t)
	repo := NewSampleRepository(db)
	ctx := context.Background()

	ts := testTime.Truncate(time.Minute)
	require.NoError(t, repo.SaveSteamSamples(ctx, []*model.SteamRawSample{
		{Timestamp: ts, AppID: 730, GameName: "CS2", PlayerCount: 100},
	}))
	// 同一 (timestamp, app_id) 重写：覆盖而非重复
	require.NoError(t, repo.SaveSteamSamples(ctx, []*model.SteamRawSample{
		{Timestamp: ts, AppID: 730, GameName: "CS2", PlayerCount: 250},
	}))

	samples, err := repo.ListSteamBetween(ctx, ts.Add(-time.Minute), ts.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, int64(250), samples[0].PlayerCount)
}

func TestListBetweenHalfOpen(t *testing.T) {
	db := newTestDB(t)
	repo := NewSampleRepository(db)
	ctx := context.Background()

	base := testTime.Truncate(time.Hour)
	require.NoError(t, repo.SaveSteamSamples(ctx, []*model.SteamRawSample{
		{Timestamp: base, AppID: 730, GameName: "CS2", PlayerCount: 1},
		{Timestamp: base.Add(30 * time.Minute), AppID: 730, GameName: "CS2", PlayerCount: 2},
		{Timestamp: base.Add(time.Hour), AppID: 730, GameName: "CS2", PlayerCount: 3},
	}))

	// [base, base+1h)：含下界不含上界
	samples, err := repo.ListSteamBetween(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, int64(1), samples[0].PlayerCount)
	assert.Equal(t, int64(2), samples[1].PlayerCount)
}

func TestDeleteBeforeReturnsCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewSampleRepository(db)
	ctx := context.Background()

	base := testTime
	require.NoError(t, repo.SaveTwitchSamples(ctx, []*model.TwitchRawSample{
		{Timestamp: base.AddDate(0, 0, -10), TwitchGameID: "1", GameName: "A", ViewerCount: 1, ChannelCount: 1},
		{Timestamp: base.AddDate(0, 0, -9), TwitchGameID: "1", GameName: "A", ViewerCount: 2, ChannelCount: 1},
		{Timestamp: base, TwitchGameID: "1", GameName: "A", ViewerCount: 3, ChannelCount: 1},
	}))

	deleted, err := repo.DeleteTwitchBefore(ctx, base.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repo.ListTwitchBetween(ctx, base.AddDate(0, 0, -30), base.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestKPIUpsertIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewKPIRepository(db)
	ctx := context.Background()

	date := testTime.Truncate(24 * time.Hour)
	row := &model.SteamDailyKPI{Date: date, AppID: 730, GameName: "CS2", AvgCCU: 100, PeakCCU: 200, MinCCU: 50, Samples: 10}
	require.NoError(t, repo.UpsertSteamDaily(ctx, []*model.SteamDailyKPI{row}))

	row.PeakCCU = 300
	require.NoError(t, repo.UpsertSteamDaily(ctx, []*model.SteamDailyKPI{row}))

	var count int64
	require.NoError(t, db.Model(&model.SteamDailyKPI{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	rows, err := repo.ListSteamDailyBetween(ctx, date, date.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(300), rows[0].PeakCCU)
}

func TestDiscoveryLogAppendOnly(t *testing.T) {
	db := newTestDB(t)
	repo := NewDiscoveryRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Log(ctx, &model.DiscoveryHistory{
			RunID:           "run-1",
			DiscoveryDate:   testTime.Add(time.Duration(i) * time.Hour),
			DiscoverySource: "igdb-popular",
			GamesDiscovered: i,
		}))
	}

	records, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].GamesDiscovered, "最近的记录排最前")
}
