package app

import (
	"fmt"

	"GameObservatory/internal/collector/igdb"
	"GameObservatory/internal/collector/steam"
	"GameObservatory/internal/collector/twitch"
	"GameObservatory/internal/config"
	"GameObservatory/internal/database"
	"GameObservatory/internal/repository"
	"GameObservatory/internal/service"
	"GameObservatory/internal/utils/timeutil"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App 组装好的应用依赖图，HTTP服务与CLI共用同一套装配
type App struct {
	Cfg    *config.Config
	DB     *gorm.DB
	Logger *logrus.Logger

	GameRepo      repository.GameRepository
	SampleRepo    repository.SampleRepository
	KPIRepo       repository.KPIRepository
	DiscoveryRepo repository.DiscoveryRepository

	Collect     *service.CollectService
	Discovery   *service.DiscoveryService
	Aggregation *service.AggregationService
	Export      *service.ExportService
	Pipeline    *service.PipelineService
}

// New 加载配置、打开数据库、迁移表结构并装配全部服务
func New(logger *logrus.Logger) (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("加载配置文件失败: %w", err)
	}

	db, err := database.Open(&cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("数据库表结构迁移失败: %w", err)
	}
	logger.Info("数据库表结构检查完成（不存在则已创建）")

	return Assemble(cfg, db, logger), nil
}

// Assemble 在已就绪的数据库连接上装配服务，测试可直接注入内存库
func Assemble(cfg *config.Config, db *gorm.DB, logger *logrus.Logger) *App {
	clock := timeutil.SystemClock()

	gameRepo := repository.NewGameRepository(db)
	sampleRepo := repository.NewSampleRepository(db)
	kpiRepo := repository.NewKPIRepository(db)
	discoveryRepo := repository.NewDiscoveryRepository(db)

	steamCfg := platformCfg(cfg, "steam")
	twitchCfg := platformCfg(cfg, "twitch")
	igdbCfg := platformCfg(cfg, "igdb")

	steamCollector := steam.NewSteamCollector(steamCfg, logger)
	twitchCollector := twitch.NewTwitchCollector(twitchCfg, logger)
	igdbCollector := igdb.NewIGDBCollector(igdbCfg, logger)

	collect := service.NewCollectService(gameRepo, sampleRepo,
		steamCollector, twitchCollector, igdbCollector, cfg, clock, logger)
	discovery := service.NewDiscoveryService(gameRepo, discoveryRepo,
		igdbCollector, twitchCollector, steamCollector, cfg, clock, logger)
	aggregation := service.NewAggregationService(sampleRepo, kpiRepo, &cfg.Aggregation, clock, logger)
	export := service.NewExportService(kpiRepo, gameRepo, &cfg.Export, clock, logger)
	pipeline := service.NewPipelineService(collect, aggregation, export, clock, logger)

	return &App{
		Cfg:           cfg,
		DB:            db,
		Logger:        logger,
		GameRepo:      gameRepo,
		SampleRepo:    sampleRepo,
		KPIRepo:       kpiRepo,
		DiscoveryRepo: discoveryRepo,
		Collect:       collect,
		Discovery:     discovery,
		Aggregation:   aggregation,
		Export:        export,
		Pipeline:      pipeline,
	}
}

func platformCfg(cfg *config.Config, name string) *config.PlatformConfig {
	if p, ok := cfg.Platforms[name]; ok {
		return &p
	}
	return &config.PlatformConfig{}
}
