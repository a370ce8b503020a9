// Package auth はユーザー登録、ログイン、トークン管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/sumika/internal/model"
	"github.com/hitoshi/sumika/internal/repository"
)

// passwordMinLength はパスワードの最小文字数。
const passwordMinLength = 8

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	TokenMaxAge int // トークン有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		config:    config,
	}
}

// Signup は新規ユーザーを登録し、認証トークンを発行する。
// メールアドレスが既に登録されている場合はEMAIL_TAKENエラーを返す。
func (s *Service) Signup(ctx context.Context, email, password string) (*model.User, string, error) {
	if err := validateEmail(email); err != nil {
		return nil, "", err
	}
	if err := validatePassword(password); err != nil {
		return nil, "", err
	}

	// 1. メールアドレスの重複チェック
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("メールアドレスの重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, "", model.NewEmailTakenError()
	}

	// 2. パスワードハッシュの生成
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("パスワードハッシュの生成に失敗しました: %w", err)
	}

	// 3. ユーザーレコードの作成
	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
	)

	// 4. 認証トークンの発行
	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Login はメールアドレスとパスワードを検証し、認証トークンを発行する。
// ユーザーが存在しない場合とパスワード不一致の場合で応答を変えない。
// アカウント列挙攻撃を防ぐため、どちらもINVALID_CREDENTIALSを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, "", model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", model.NewInvalidCredentialsError()
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return user, token, nil
}

// Logout は認証トークンを失効させる。
// トークンが既に存在しない場合もエラーにはしない。
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("トークンが指定されていません")
	}

	if err := s.tokenRepo.Delete(ctx, token); err != nil {
		return fmt.Errorf("トークンの失効に失敗しました: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// GetCurrentUser は認証済みユーザーIDから現在のユーザーを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// issueToken は認証トークンを生成し永続化する。
func (s *Service) issueToken(ctx context.Context, userID string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("トークンの生成に失敗しました: %w", err)
	}

	authToken := &model.AuthToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.TokenMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.tokenRepo.Create(ctx, authToken); err != nil {
		return "", fmt.Errorf("トークンの保存に失敗しました: %w", err)
	}

	return token, nil
}

// validateEmail はメールアドレスの形式を検証する。
func validateEmail(email string) error {
	if email == "" {
		return model.NewValidationError("メールアドレスが指定されていません。")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.NewValidationError("メールアドレスの形式が不正です。")
	}
	return nil
}

// validatePassword はパスワードの最小要件を検証する。
func validatePassword(password string) error {
	if len(password) < passwordMinLength {
		return model.NewValidationError(
			fmt.Sprintf("パスワードは%d文字以上で指定してください。", passwordMinLength))
	}
	return nil
}

// generateToken は暗号的に安全な認証トークンを生成する。
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
