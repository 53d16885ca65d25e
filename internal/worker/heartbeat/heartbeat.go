// Package heartbeat は死活通知の定期送信ジョブを提供する。
package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/cdrwatch/internal/notify"
)

// TextSender は通知先チャットへのテキスト送信のインターフェース。
type TextSender interface {
	SendText(ctx context.Context, text string) error
}

// defaultInterval は死活通知のデフォルト間隔。
const defaultInterval = time.Hour

// Job は固定間隔でプロセスの生存を通知するジョブ。
// 送信失敗は損失許容でログに記録するのみ。リトライはしない。
type Job struct {
	sender       TextSender
	instanceID   string
	accountCount int
	interval     time.Duration
	logger       *slog.Logger
}

// NewJob はJobの新しいインスタンスを生成する。
// intervalが0以下の場合はデフォルト値（1時間）を使用する。
func NewJob(sender TextSender, instanceID string, accountCount int, interval time.Duration, logger *slog.Logger) *Job {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Job{
		sender:       sender,
		instanceID:   instanceID,
		accountCount: accountCount,
		interval:     interval,
		logger:       logger,
	}
}

// Run は起動直後に1回、その後は固定間隔で死活通知を送信する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *Job) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("ハートビートジョブを開始しました",
		slog.Duration("interval", j.interval),
		slog.String("instance_id", j.instanceID),
	)

	j.sendOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("ハートビートジョブを停止しました")
			return
		case <-ticker.C:
			j.sendOnce(ctx)
		}
	}
}

// sendOnce は死活通知を1回送信する。
func (j *Job) sendOnce(ctx context.Context) {
	text := notify.FormatHeartbeat(j.instanceID, j.accountCount)
	if err := j.sender.SendText(ctx, text); err != nil {
		j.logger.Error("ハートビートの送信に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}
