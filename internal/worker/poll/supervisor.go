package poll

import (
	"context"
	"log/slog"
	"sync"
)

// Job は監督対象の常駐ジョブ。コンテキストがキャンセルされるまで実行を継続する。
// AccountWorkerとハートビートジョブが実装する。
type Job interface {
	Run(ctx context.Context)
}

// Supervisor は全アカウントワーカーと死活通知ジョブを並行に起動する。
type Supervisor struct {
	jobs   []Job
	logger *slog.Logger
}

// NewSupervisor はSupervisorの新しいインスタンスを生成する。
func NewSupervisor(logger *slog.Logger) *Supervisor {
	return &Supervisor{logger: logger}
}

// Add は監督対象のジョブを追加する。Startの前に呼び出すこと。
func (s *Supervisor) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start は全ジョブをそれぞれgoroutineで起動し、全ジョブが停止するまでブロックする。
// あるジョブの起動が別のジョブの初回サイクル完了を待つことはなく、
// 各ジョブはコンテキストのキャンセルまで独立に動き続ける。
func (s *Supervisor) Start(ctx context.Context) {
	s.logger.Info("スーパーバイザを開始しました",
		slog.Int("job_count", len(s.jobs)),
	)

	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(j Job) {
			defer wg.Done()
			j.Run(ctx)
		}(job)
	}

	wg.Wait()
	s.logger.Info("スーパーバイザを停止しました")
}
