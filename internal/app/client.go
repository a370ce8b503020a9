package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hitoshi/sumika/internal/client"
)

// clientUsage はclientサブコマンドの使い方。
const clientUsage = `usage: sumika client <command> [args]

commands:
  signup <email> <password>      新規登録してログインする
  login <email> <password>       ログインする
  logout                         ログアウトする
  me                             ログイン中のユーザーを表示する
  properties [location]          物件一覧を表示する
  favorites                      お気に入り物件IDを表示する

environment:
  BASE_URL                       APIのベースURL (default: http://localhost:8080)
  SUMIKA_TOKEN_FILE              トークンの保存先 (default: ~/.sumika/token)
`

// runClient はclientサブコマンドを実行する。
// SDKのSessionManagerを通じてAPIサーバーを操作する薄いCLI。
func runClient(w io.Writer, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(w, clientUsage)
		return fmt.Errorf("client command is required")
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	tokenPath := os.Getenv("SUMIKA_TOKEN_FILE")
	if tokenPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to resolve home directory: %w", err)
		}
		tokenPath = filepath.Join(home, ".sumika", "token")
	}

	// CLIではログをstderrへ逃し、wには結果だけを書く
	clientLogger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	apiClient := client.NewClient(
		&http.Client{}, client.NewFileTokenStore(tokenPath), clientLogger, baseURL,
	)
	session := client.NewSessionManager(apiClient, clientLogger)
	ctx := context.Background()

	switch args[0] {
	case "signup":
		if len(args) < 3 {
			return fmt.Errorf("usage: sumika client signup <email> <password>")
		}
		resp, err := session.Signup(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "registered as %s (%s)\n", resp.User.Email, resp.User.ID)
		return nil

	case "login":
		if len(args) < 3 {
			return fmt.Errorf("usage: sumika client login <email> <password>")
		}
		resp, err := session.Login(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "logged in as %s (%s)\n", resp.User.Email, resp.User.Role)
		return nil

	case "logout":
		session.Initialize(ctx)
		session.Logout(ctx)
		fmt.Fprintln(w, "logged out")
		return nil

	case "me":
		session.Initialize(ctx)
		user := session.User()
		if user == nil {
			return fmt.Errorf("not logged in")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", user.ID, user.Email, user.Role)
		return nil

	case "properties":
		filter := client.PropertyFilter{}
		if len(args) > 1 {
			filter.Location = args[1]
		}
		properties, err := apiClient.ListProperties(ctx, filter)
		if err != nil {
			return err
		}
		for _, p := range properties {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.ID, p.Title, p.Location, p.Price)
		}
		return nil

	case "favorites":
		session.Initialize(ctx)
		user := session.User()
		if user == nil {
			return fmt.Errorf("not logged in")
		}
		ids, err := apiClient.GetFavorites(ctx, user.ID)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, strings.Join(ids, "\n"))
		return nil

	default:
		fmt.Fprint(w, clientUsage)
		return fmt.Errorf("unknown client command: %s", args[0])
	}
}
