package model

// Account は監視対象ポータルのログインアカウントを表す。
// 起動時にACCOUNTS環境変数から読み込まれ、プロセスの生存期間中は不変。
// 1つのAccountは1つのアカウントワーカーが専有する。
type Account struct {
	// Email はポータルのログインID（メールアドレス形式）。
	Email string `json:"email"`
	// Password はポータルのログインパスワード。
	Password string `json:"password"`
}
