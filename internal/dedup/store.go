// Package dedup は配信済みレコードIdentityのプロセス内重複排除ストアを提供する。
package dedup

import "sync"

// Store は配信済みIdentityの集合。全アカウントワーカーで共有される。
// Identityにはアカウントが含まれるため、アカウント間の衝突は起こらない。
// 追加のみで削除はなく、プロセスの生存期間にわたり単調に増加する
// （長期稼働・低流量のストリームを前提とした割り切り）。
// プロセス再起動で失われるのは既知の制約。
type Store struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewStore はStoreの新しいインスタンスを生成する。
// グローバル状態にせず、起動時にワーカーへ明示的に注入する。
func NewStore() *Store {
	return &Store{
		seen: make(map[string]struct{}),
	}
}

// MarkSeen はIdentityを配信済みとして登録する。
// 初めて登録された場合のみtrueを返す。
// 判定と登録を単一のクリティカルセクションで行うため、
// 同一Identityに対する並行呼び出しでtrueを観測するのは厳密に1回だけとなる。
func (s *Store) MarkSeen(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[identity]; ok {
		return false
	}
	s.seen[identity] = struct{}{}
	return true
}

// Contains はIdentityが配信済みかどうかを返す。
func (s *Store) Contains(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[identity]
	return ok
}

// Len は登録済みIdentityの件数を返す。メトリクス用。
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.seen)
}
