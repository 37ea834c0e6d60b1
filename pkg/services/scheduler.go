package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// regenerateTimeout 定期再生成1回あたりの上限時間
const regenerateTimeout = 30 * time.Second

// Scheduler 定期ジョブの実行
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler 新しいSchedulerを作成
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger: logger,
	}
}

// ScheduleRegeneration サンプルデータの定期再生成を登録（specは標準の5フィールド形式または @every 等）
func (s *Scheduler) ScheduleRegeneration(spec string, svc *SampleDataService) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), regenerateTimeout)
		defer cancel()

		summary, err := svc.Regenerate(ctx)
		if err != nil {
			s.logger.Error("サンプルデータの定期再生成に失敗しました", slog.Any("error", err))
			return
		}
		s.logger.Info("サンプルデータを定期再生成しました",
			slog.Int("activities", summary.ActivitiesCreated),
			slog.Int("moods", summary.MoodsCreated))
	})
	if err != nil {
		return 0, fmt.Errorf("スケジュールの登録に失敗しました (%q): %w", spec, err)
	}
	s.logger.Info("サンプルデータの定期再生成を登録しました", slog.String("spec", spec))
	return id, nil
}

// Jobs 登録済みジョブ数
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start スケジューラを開始
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop スケジューラを停止し、実行中のジョブの完了を待つ
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("実行中の定期ジョブの完了を待たずに停止しました")
	}
}
