package service

import (
	"context"
	"errors"
	"testing"

	"GameObservatory/internal/collector/igdb"
	"GameObservatory/internal/config"
	"GameObservatory/internal/model"
	"GameObservatory/internal/repository"
	"GameObservatory/internal/utils/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// 假采集器：固定返回预置数据，覆盖发现与补全流程所需的方法

type fakeIGDB struct {
	games       map[int64]*model.IGDBGame
	externalIDs map[int64]map[string]string
	steamToIGDB map[int64]int64
}

func (f *fakeIGDB) DiscoverPopular(ctx context.Context, limit int) ([]model.IGDBGame, error) {
	return nil, nil
}

func (f *fakeIGDB) DiscoverRecent(ctx context.Context, limit, daysBack int) ([]model.IGDBGame, error) {
	return nil, nil
}

func (f *fakeIGDB) DiscoverUpcoming(ctx context.Context, limit, daysAhead int) ([]model.IGDBGame, error) {
	return nil, nil
}

func (f *fakeIGDB) DiscoverTopRated(ctx context.Context, limit, minRatings int) ([]model.IGDBGame, error) {
	return nil, nil
}

func (f *fakeIGDB) GetGameMetadata(ctx context.Context, igdbID int64) (*model.IGDBGame, error) {
	game, ok := f.games[igdbID]
	if !ok {
		return nil, igdb.ErrNotFound
	}
	return game, nil
}

func (f *fakeIGDB) GetExternalIDs(ctx context.Context, igdbID int64) (map[string]string, error) {
	ids, ok := f.externalIDs[igdbID]
	if !ok {
		return map[string]string{}, nil
	}
	return ids, nil
}

func (f *fakeIGDB) FindIGDBIDBySteam(ctx context.Context, steamAppID int64) (int64, error) {
	id, ok := f.steamToIGDB[steamAppID]
	if !ok {
		return 0, igdb.ErrNotFound
	}
	return id, nil
}

func (f *fakeIGDB) FindIGDBIDByTwitch(ctx context.Context, twitchGameID string) (int64, error) {
	return 0, igdb.ErrNotFound
}

func (f *fakeIGDB) GetGameRatings(ctx context.Context, igdbID int64) (*model.IGDBGame, error) {
	return f.GetGameMetadata(ctx, igdbID)
}

type fakeSteam struct {
	details    *model.SteamAppDetails
	tags       map[string]int
	detailsErr error
	tagsErr    error
}

func (f *fakeSteam) GetPlayerCount(ctx context.Context, appID int64) (int64, error) {
	return 0, nil
}

func (f *fakeSteam) GetAppDetails(ctx context.Context, appID int64) (*model.SteamAppDetails, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	return f.details, nil
}

func (f *fakeSteam) GetAppTags(ctx context.Context, appID int64) (map[string]int, error) {
	if f.tagsErr != nil {
		return nil, f.tagsErr
	}
	return f.tags, nil
}

type fakeTwitch struct{}

func (f *fakeTwitch) GetGameViewership(ctx context.Context, twitchGameID string) (*model.TwitchViewership, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTwitch) TopGames(ctx context.Context, limit int) ([]model.TwitchGame, error) {
	return nil, nil
}

func newDiscovery(t *testing.T, db *gorm.DB, igdbC *fakeIGDB, steamC *fakeSteam) (*DiscoveryService, repository.GameRepository) {
	t.Helper()
	gameRepo := repository.NewGameRepository(db)
	svc := NewDiscoveryService(gameRepo, repository.NewDiscoveryRepository(db),
		igdbC, &fakeTwitch{}, steamC, &config.Config{}, timeutil.FixedClock{T: testNow}, newTestLogger())
	return svc, gameRepo
}

func steamRich(t *testing.T) (*fakeIGDB, *fakeSteam) {
	t.Helper()
	igdbC := &fakeIGDB{
		games: map[int64]*model.IGDBGame{
			1942: {ID: 1942, Name: "The Witness", Slug: "the-witness", Summary: "puzzle island"},
		},
		externalIDs: map[int64]map[string]string{
			1942: {"steam": "210970"},
		},
		steamToIGDB: map[int64]int64{210970: 1942},
	}
	steamC := &fakeSteam{
		details: &model.SteamAppDetails{Success: true},
		tags:    map[string]int{"Puzzle": 4096, "Exploration": 1024},
	}
	steamC.details.Data.ShortDescription = "An open-world puzzle game."
	steamC.details.Data.RequiredAge = 12
	return igdbC, steamC
}

func TestFillMetadataEnrichesFromSteamStore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	igdbC, steamC := steamRich(t)
	svc, gameRepo := newDiscovery(t, db, igdbC, steamC)

	_, _, err := gameRepo.InsertDiscovered(ctx, []*model.GameListEntry{{
		IGDBID:          1942,
		GameName:        "The Witness",
		DiscoveredAt:    testNow,
		DiscoverySource: SourceIGDBPopular,
	}})
	require.NoError(t, err)

	filled, err := svc.FillMetadata(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, filled)

	game, err := gameRepo.GetByIGDBID(ctx, 1942)
	require.NoError(t, err)
	assert.Equal(t, "An open-world puzzle game.", game.SteamDescription)
	assert.Equal(t, 12, game.SteamRequiredAge)
	assert.Contains(t, string(game.SteamTags), "Puzzle")
	assert.True(t, game.TrackSteam)
}

func TestFillMetadataToleratesStoreFailure(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	igdbC, steamC := steamRich(t)
	steamC.detailsErr = errors.New("store unavailable")
	steamC.tagsErr = errors.New("steamspy unavailable")
	svc, gameRepo := newDiscovery(t, db, igdbC, steamC)

	_, _, err := gameRepo.InsertDiscovered(ctx, []*model.GameListEntry{{
		IGDBID:          1942,
		GameName:        "The Witness",
		DiscoveredAt:    testNow,
		DiscoverySource: SourceIGDBPopular,
	}})
	require.NoError(t, err)

	filled, err := svc.FillMetadata(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, filled, "商店补充数据失败不阻断元数据入库")

	game, err := gameRepo.GetByIGDBID(ctx, 1942)
	require.NoError(t, err)
	assert.Equal(t, "The Witness", game.GameName)
	assert.Empty(t, game.SteamDescription)
}

func TestTrackSteamAppResolvesIdentity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	igdbC, steamC := steamRich(t)
	svc, _ := newDiscovery(t, db, igdbC, steamC)

	game, err := svc.TrackSteamApp(ctx, 210970)
	require.NoError(t, err)
	assert.Equal(t, int64(1942), game.IGDBID)
	assert.Equal(t, "The Witness", game.GameName, "入库后以IGDB规范名为准")
	require.NotNil(t, game.SteamAppID)
	assert.Equal(t, int64(210970), *game.SteamAppID)
	assert.Equal(t, SourceManualSteam, game.DiscoverySource)
	assert.Equal(t, "An open-world puzzle game.", game.SteamDescription)
}

func TestTrackSteamAppRejectsUnmappedApp(t *testing.T) {
	db := newTestDB(t)
	igdbC, steamC := steamRich(t)
	svc, _ := newDiscovery(t, db, igdbC, steamC)

	_, err := svc.TrackSteamApp(context.Background(), 999999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, igdb.ErrNotFound))
}
