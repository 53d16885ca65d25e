package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandWatch はポーリングワーカーと運用サーバーを起動することを示す。
	CommandWatch Command = "watch"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandWatchを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandWatch
	}

	switch args[0] {
	case "watch":
		return CommandWatch
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandWatch
	}
}
