// Package status はプロセスと各アカウントの稼働状況スナップショットを提供する。
// 各ワーカーがサイクル結果を書き込み、HTTPの/statusエンドポイントが読み出す。
package status

import (
	"sync"
	"time"

	"github.com/hitoshi/cdrwatch/internal/model"
)

// AccountStatus は1アカウントの直近サイクルの結果を表す。
type AccountStatus struct {
	Account     string    `json:"account"`
	LastCycleAt time.Time `json:"last_cycle_at"`
	LastRecords int       `json:"last_records"`
	LastNew     int       `json:"last_new"`
	LastError   string    `json:"last_error,omitempty"`
}

// Report はプロセス全体の稼働状況スナップショット。
type Report struct {
	InstanceID    string          `json:"instance_id"`
	StartedAt     time.Time       `json:"started_at"`
	UptimeSeconds float64         `json:"uptime_seconds"`
	Accounts      []AccountStatus `json:"accounts"`
}

// Board は稼働状況の共有ボード。全ワーカーから並行に書き込まれる。
type Board struct {
	mu         sync.RWMutex
	instanceID string
	startedAt  time.Time
	accounts   map[string]AccountStatus
	order      []string // 設定順を保持して出力を安定させる
}

// NewBoard はBoardの新しいインスタンスを生成する。
// 設定された全アカウントのエントリを空の状態で事前登録する。
func NewBoard(instanceID string, accounts []model.Account) *Board {
	b := &Board{
		instanceID: instanceID,
		startedAt:  time.Now(),
		accounts:   make(map[string]AccountStatus, len(accounts)),
	}
	for _, acc := range accounts {
		b.accounts[acc.Email] = AccountStatus{Account: acc.Email}
		b.order = append(b.order, acc.Email)
	}
	return b
}

// RecordCycle はアカウントの直近サイクル結果を記録する。
func (b *Board) RecordCycle(account string, records, newCount int, cycleErr error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := AccountStatus{
		Account:     account,
		LastCycleAt: time.Now(),
		LastRecords: records,
		LastNew:     newCount,
	}
	if cycleErr != nil {
		st.LastError = cycleErr.Error()
	}

	if _, known := b.accounts[account]; !known {
		b.order = append(b.order, account)
	}
	b.accounts[account] = st
}

// Snapshot は現在の稼働状況のコピーを返す。
func (b *Board) Snapshot() Report {
	b.mu.RLock()
	defer b.mu.RUnlock()

	report := Report{
		InstanceID:    b.instanceID,
		StartedAt:     b.startedAt,
		UptimeSeconds: time.Since(b.startedAt).Seconds(),
		Accounts:      make([]AccountStatus, 0, len(b.order)),
	}
	for _, account := range b.order {
		report.Accounts = append(report.Accounts, b.accounts[account])
	}
	return report
}
