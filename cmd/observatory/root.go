package main

import (
	"fmt"

	"GameObservatory/internal/app"
	"GameObservatory/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// 运维CLI：不起HTTP服务，单次执行流水线的某个阶段后退出。
// 适合手动补跑、调试或接入外部调度器。

var verbose bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "observatory",
		Short: "游戏热度指标流水线运维工具",
		Long:  "按阶段单次执行游戏热度指标流水线：发现、采集、聚合、清理、导出。",
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出Debug级别日志")

	root.AddCommand(
		newDiscoverCmd(),
		newCollectCmd(),
		newAggregateCmd(),
		newCleanupCmd(),
		newExportCmd(),
		newRunCmd(),
	)
	return root
}

func setup() (*app.App, error) {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return app.New(logger)
}

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "执行一轮游戏发现与元数据补全",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setup()
			if err != nil {
				return err
			}
			result, err := application.Discovery.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("发现完成：新游戏%d，已知%d，无法解析%d，补全元数据%d\n",
				result.NewGames, result.KnownGames, result.Unresolved, result.MetadataFilled)
			return nil
		},
	}
}

func newCollectCmd() *cobra.Command {
	var platform string
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "采集当前指标快照",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setup()
			if err != nil {
				return err
			}
			if platform != "" {
				result, err := application.Collect.CollectPlatform(cmd.Context(), model.PlatformType(platform))
				if err != nil {
					return err
				}
				fmt.Printf("%s采集完成：成功%d，失败%d，跳过%d\n",
					result.Platform, result.Collected, result.Failed, result.Skipped)
				return nil
			}
			for _, result := range application.Collect.CollectAll(cmd.Context()) {
				fmt.Printf("%s采集完成：成功%d，失败%d，跳过%d\n",
					result.Platform, result.Collected, result.Failed, result.Skipped)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "只采集指定平台（steam/twitch/igdb）")
	return cmd
}

func newAggregateCmd() *cobra.Command {
	var level string
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "执行级联聚合（不含清理）",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setup()
			if err != nil {
				return err
			}
			agg := application.Aggregation
			ctx := cmd.Context()
			switch level {
			case "hourly":
				return agg.AggregateHourly(ctx)
			case "daily":
				return agg.AggregateDaily(ctx)
			case "weekly":
				return agg.AggregateWeekly(ctx)
			case "monthly":
				return agg.AggregateMonthly(ctx)
			case "":
				if err := agg.AggregateHourly(ctx); err != nil {
					return err
				}
				if err := agg.AggregateDaily(ctx); err != nil {
					return err
				}
				if err := agg.AggregateWeekly(ctx); err != nil {
					return err
				}
				return agg.AggregateMonthly(ctx)
			default:
				return fmt.Errorf("未知粒度: %s（可选 hourly/daily/weekly/monthly）", level)
			}
		},
	}
	cmd.Flags().StringVarP(&level, "level", "l", "", "只聚合指定粒度，缺省按级联顺序全跑")
	return cmd
}

func newCleanupCmd() *cobra.Command {
	var retention int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "按保留策略清理原始样本与小时桶",
		Long:  "先执行当日聚合再删除过期数据，保证样本先进桶再出库。",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := application.Aggregation.AggregateDaily(ctx); err != nil {
				return err
			}
			rawDeleted, err := application.Aggregation.CleanupRaw(ctx, retention)
			if err != nil {
				return err
			}
			hourlyDeleted, err := application.Aggregation.CleanupHourly(ctx, 0)
			if err != nil {
				return err
			}
			fmt.Printf("原始样本清理：steam %d，twitch %d，igdb %d\n",
				rawDeleted[model.PlatformSteam], rawDeleted[model.PlatformTwitch], rawDeleted[model.PlatformIGDB])
			fmt.Printf("小时桶清理：steam %d，twitch %d\n",
				hourlyDeleted[model.PlatformSteam], hourlyDeleted[model.PlatformTwitch])
			return nil
		},
	}
	cmd.Flags().IntVar(&retention, "retention", 0, "原始样本保留天数，缺省用配置值")
	return cmd
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "导出全部仪表盘JSON文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setup()
			if err != nil {
				return err
			}
			return application.Export.ExportAll(cmd.Context())
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "执行一轮完整流水线：采集→聚合→清理→导出",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setup()
			if err != nil {
				return err
			}
			_, err = application.Pipeline.Run(cmd.Context())
			return err
		},
	}
}
