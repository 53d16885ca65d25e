// Package poll はアカウントごとのCDRポーリングワーカーと監督機構を提供する。
// 1ワーカーが1アカウントと1セッションを専有し、固定間隔で
// 認証→フェッチ→配信→スリープ のサイクルを無期限に繰り返す。
package poll

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/cdrwatch/internal/dedup"
	"github.com/hitoshi/cdrwatch/internal/model"
)

// PortalSession はポータルへの認証とCDR取得のインターフェース。
// portal.Clientを抽象化してテスタビリティを向上させる。
type PortalSession interface {
	Login(ctx context.Context, account model.Account) error
	FetchCDRs(ctx context.Context, accountID string) []model.CDRRecord
}

// RecordDispatcher はレコード通知配信のインターフェース。
type RecordDispatcher interface {
	DispatchRecord(ctx context.Context, rec *model.CDRRecord) error
}

// CycleMetrics はサイクル結果のメトリクス記録のインターフェース。
type CycleMetrics interface {
	RecordLoginSuccess(account string)
	RecordLoginFailure(account string)
	RecordFetchLatency(duration time.Duration)
	RecordDispatched()
	RecordDispatchFailure()
	RecordDuplicate()
	SetSeenIdentities(count int)
}

// CycleBoard は稼働状況ボードへの書き込みのインターフェース。
type CycleBoard interface {
	RecordCycle(account string, records, newCount int, cycleErr error)
}

// noopMetrics / noopBoard は計測・状況記録が不要な場合の実装。
type noopMetrics struct{}

func (noopMetrics) RecordLoginSuccess(string)        {}
func (noopMetrics) RecordLoginFailure(string)        {}
func (noopMetrics) RecordFetchLatency(time.Duration) {}
func (noopMetrics) RecordDispatched()                {}
func (noopMetrics) RecordDispatchFailure()           {}
func (noopMetrics) RecordDuplicate()                 {}
func (noopMetrics) SetSeenIdentities(int)            {}

type noopBoard struct{}

func (noopBoard) RecordCycle(string, int, int, error) {}

// defaultPollInterval はポーリング間隔のデフォルト値。
const defaultPollInterval = 10 * time.Second

// AccountWorker は1アカウント分のポーリングワーカー。
// セッション（クッキージャー込み）を専有し、他のワーカーと共有しない。
// 共有するのは重複排除ストアと配信機構のみ。
type AccountWorker struct {
	account    model.Account
	session    PortalSession
	store      *dedup.Store
	dispatcher RecordDispatcher
	metrics    CycleMetrics
	board      CycleBoard
	logger     *slog.Logger
	interval   time.Duration
}

// NewAccountWorker はAccountWorkerの新しいインスタンスを生成する。
// intervalが0以下の場合はデフォルト値を使用する。
// metricsとboardはnilを許容する（その場合は記録しない）。
func NewAccountWorker(
	account model.Account,
	session PortalSession,
	store *dedup.Store,
	dispatcher RecordDispatcher,
	metrics CycleMetrics,
	board CycleBoard,
	logger *slog.Logger,
	interval time.Duration,
) *AccountWorker {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if board == nil {
		board = noopBoard{}
	}
	return &AccountWorker{
		account:    account,
		session:    session,
		store:      store,
		dispatcher: dispatcher,
		metrics:    metrics,
		board:      board,
		logger:     logger,
		interval:   interval,
	}
}

// Run はワーカーループを実行する。コンテキストがキャンセルされるまで
// 認証→フェッチ→配信→スリープ を固定間隔で繰り返す（バックオフなし）。
// サイクル内のエラーはログに記録して次のスリープに進むだけで、
// ワーカー自体は決して終了しない。1アカウントの失敗が
// 他アカウントのワーカーを止めることはない。
func (w *AccountWorker) Run(ctx context.Context) {
	w.logger.Info("アカウントワーカーを開始しました",
		slog.String("account", w.account.Email),
		slog.Duration("interval", w.interval),
	)

	for {
		if ctx.Err() != nil {
			w.logger.Info("アカウントワーカーを停止しました",
				slog.String("account", w.account.Email),
			)
			return
		}

		fetched, dispatched, err := w.RunCycle(ctx)
		if err != nil {
			w.logger.Error("ポーリングサイクルでエラーが発生しました（次サイクルで再試行します）",
				slog.String("account", w.account.Email),
				slog.String("error", err.Error()),
			)
		}
		w.board.RecordCycle(w.account.Email, fetched, dispatched, err)

		select {
		case <-ctx.Done():
			w.logger.Info("アカウントワーカーを停止しました",
				slog.String("account", w.account.Email),
			)
			return
		case <-time.After(w.interval):
		}
	}
}

// RunCycle は1サイクル分の 認証→フェッチ→配信 を実行する。
// 戻り値は取得レコード数、新規配信数、サイクルエラー。
// 認証失敗時はこのサイクルのフェッチ・配信をスキップしてエラーを返す
// （リトライは次サイクルの再ログインに委ねる）。
func (w *AccountWorker) RunCycle(ctx context.Context) (fetched, dispatched int, err error) {
	start := time.Now()

	// Authenticating: セッション期限切れの検出は行わず、毎サイクル
	// フルログインを実行する。ジャーのセッションが有効なら
	// ヒューリスティック判定はそのまま通る。
	if err := w.session.Login(ctx, w.account); err != nil {
		w.metrics.RecordLoginFailure(w.account.Email)
		return 0, 0, err
	}
	w.metrics.RecordLoginSuccess(w.account.Email)

	// Fetching: 失敗はフェッチャー境界で吸収され空スライスになる
	records := w.session.FetchCDRs(ctx, w.account.Email)
	w.metrics.RecordFetchLatency(time.Since(start))

	// Dispatching: 0件でも状態遷移としては通過する（実質no-op）
	for i := range records {
		rec := &records[i]

		if !w.store.MarkSeen(rec.Identity) {
			w.metrics.RecordDuplicate()
			continue
		}

		// 配信済み登録は送信前に確定している（dispatch-once）。
		// 送信失敗してもIdentityは取り消さず、後のサイクルで再送しない。
		if derr := w.dispatcher.DispatchRecord(ctx, rec); derr != nil {
			w.metrics.RecordDispatchFailure()
			w.logger.Error("レコードの配信に失敗しました",
				slog.String("account", w.account.Email),
				slog.String("identity", rec.Identity),
				slog.String("error", derr.Error()),
			)
			continue
		}
		dispatched++
		w.metrics.RecordDispatched()
	}

	w.metrics.SetSeenIdentities(w.store.Len())
	return len(records), dispatched, nil
}
