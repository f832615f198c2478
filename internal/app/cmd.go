package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandSeed は初期データ（施設一覧）を投入することを示す。
	CommandSeed Command = "seed"
	// CommandCreateAdmin は管理者ロールのユーザーを作成することを示す。
	CommandCreateAdmin Command = "create-admin"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "seed":
		return CommandSeed
	case "create-admin":
		return CommandCreateAdmin
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
