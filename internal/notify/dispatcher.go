package notify

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/hitoshi/cdrwatch/internal/model"
)

// MessageSender はメッセージ送信のインターフェース。
// テスト時にモックに差し替え可能。
type MessageSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Dispatcher はレコード通知の配信ポリシーを実装する。
// 全ワーカーで共有され、レートリミッターでTelegram APIへの
// 送信頻度をプロセス全体で制限する。
type Dispatcher struct {
	sender    MessageSender
	chatID    string
	ownerID   string // 空の場合はオペレータ警告なし
	limiter   *rate.Limiter
	sanitizer FieldSanitizer
	logger    *slog.Logger
}

// NewDispatcher はDispatcherの新しいインスタンスを生成する。
func NewDispatcher(
	sender MessageSender,
	chatID, ownerID string,
	limiter *rate.Limiter,
	sanitizer FieldSanitizer,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		sender:    sender,
		chatID:    chatID,
		ownerID:   ownerID,
		limiter:   limiter,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// DispatchRecord はレコード1件の通知を配信する。
// 送信失敗時はベストエフォートで1回だけ再試行し、それも失敗した場合は
// オペレータ（設定時）にレコードのIdentityを添えて警告を送る。
// 配信はdispatch-onceポリシーであり、このエラーを理由に呼び出し側が
// 配信済み判定を取り消してはならない（後のサイクルで再送されることはない）。
func (d *Dispatcher) DispatchRecord(ctx context.Context, rec *model.CDRRecord) error {
	text := FormatRecord(rec, d.sanitizer)

	firstErr := d.send(ctx, d.chatID, text)
	if firstErr == nil {
		d.logger.Info("レコードを通知しました",
			slog.String("identity", rec.Identity),
			slog.String("chat_id", d.chatID),
		)
		return nil
	}

	d.logger.Warn("レコードの通知送信に失敗しました（再試行します）",
		slog.String("identity", rec.Identity),
		slog.String("error", firstErr.Error()),
	)

	// ベストエフォートの単発リトライ
	retryErr := d.send(ctx, d.chatID, text)
	if retryErr == nil {
		d.logger.Info("再試行でレコードを通知しました",
			slog.String("identity", rec.Identity),
		)
		return nil
	}

	// オペレータへの警告（設定時のみ、失敗しても握りつぶす）
	if d.ownerID != "" {
		alert := FormatOperatorAlert(rec.Identity, retryErr)
		if alertErr := d.send(ctx, d.ownerID, alert); alertErr != nil {
			d.logger.Warn("オペレータへの警告送信にも失敗しました",
				slog.String("identity", rec.Identity),
				slog.String("error", alertErr.Error()),
			)
		}
	}

	return model.NewNotifyFailedError(rec.Identity)
}

// SendText は通知先チャットへ任意テキストを1回送信する。
// ハートビート等の損失許容メッセージ用で、リトライは行わない。
func (d *Dispatcher) SendText(ctx context.Context, text string) error {
	return d.send(ctx, d.chatID, text)
}

// send はレートリミッターで送信間隔を調整してから送信する。
func (d *Dispatcher) send(ctx context.Context, chatID, text string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.sender.SendMessage(ctx, chatID, text)
}
