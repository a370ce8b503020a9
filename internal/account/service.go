// Package account はユーザープロフィール、検索条件、お気に入りのドメインロジックを提供する。
package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/sumika/internal/model"
	"github.com/hitoshi/sumika/internal/repository"
)

// Service はアカウント管理のサービス層。
type Service struct {
	userRepo     repository.UserRepository
	tokenRepo    repository.TokenRepository
	prefRepo     repository.PreferenceRepository
	favoriteRepo repository.FavoriteRepository
	propertyRepo repository.PropertyRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	prefRepo repository.PreferenceRepository,
	favoriteRepo repository.FavoriteRepository,
	propertyRepo repository.PropertyRepository,
) *Service {
	return &Service{
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		prefRepo:     prefRepo,
		favoriteRepo: favoriteRepo,
		propertyRepo: propertyRepo,
	}
}

// GetUser は指定IDのユーザーを取得する。
// 本人または管理者のみアクセス可能。それ以外にはFORBIDDENを返す。
func (s *Service) GetUser(ctx context.Context, requesterID string, requesterRole model.Role, targetID string) (*model.User, error) {
	if requesterID != targetID && requesterRole != model.RoleAdmin {
		return nil, model.NewForbiddenError()
	}

	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// GetPreferences は指定ユーザーの検索条件を取得する。
// 未保存の場合はnilを返す（404にはしない）。
func (s *Service) GetPreferences(ctx context.Context, userID string) (*model.Preferences, error) {
	prefs, err := s.prefRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("検索条件の取得に失敗しました: %w", err)
	}
	return prefs, nil
}

// UpdatePreferences は検索条件を冪等に保存する。
// 予算範囲の下限が上限を超えている場合はエラーを返す。
func (s *Service) UpdatePreferences(ctx context.Context, prefs *model.Preferences) (*model.Preferences, error) {
	if prefs.Budget.Min < 0 || prefs.Budget.Max < 0 {
		return nil, model.NewValidationError("予算には0以上の値を指定してください。")
	}
	if prefs.Budget.Max > 0 && prefs.Budget.Min > prefs.Budget.Max {
		return nil, model.NewValidationError("予算の下限が上限を超えています。")
	}
	if prefs.MinBedrooms < 0 || prefs.MinBathrooms < 0 {
		return nil, model.NewValidationError("部屋数には0以上の値を指定してください。")
	}

	prefs.UpdatedAt = time.Now()
	if err := s.prefRepo.Upsert(ctx, prefs); err != nil {
		return nil, fmt.Errorf("検索条件の保存に失敗しました: %w", err)
	}

	slog.Info("preferences updated",
		slog.String("user_id", prefs.UserID),
	)

	return prefs, nil
}

// AddFavorite はお気に入りを追加する。
// 物件が存在しない場合はPROPERTY_NOT_FOUNDを返す。重複追加は冪等に成功する。
func (s *Service) AddFavorite(ctx context.Context, userID, propertyID string) error {
	property, err := s.propertyRepo.FindByID(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("物件の取得に失敗しました: %w", err)
	}
	if property == nil {
		return model.NewPropertyNotFoundError(propertyID)
	}

	if err := s.favoriteRepo.Add(ctx, userID, propertyID); err != nil {
		return fmt.Errorf("お気に入りの追加に失敗しました: %w", err)
	}
	return nil
}

// RemoveFavorite はお気に入りを削除する。対象が存在しなくても成功する。
func (s *Service) RemoveFavorite(ctx context.Context, userID, propertyID string) error {
	if err := s.favoriteRepo.Remove(ctx, userID, propertyID); err != nil {
		return fmt.Errorf("お気に入りの削除に失敗しました: %w", err)
	}
	return nil
}

// ListFavorites はユーザーのお気に入り物件を追加日時の降順で返す。
// お気に入り登録後に削除された物件はスキップする。
func (s *Service) ListFavorites(ctx context.Context, userID string) ([]*model.Property, error) {
	ids, err := s.favoriteRepo.ListPropertyIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("お気に入り一覧の取得に失敗しました: %w", err)
	}

	properties := make([]*model.Property, 0, len(ids))
	for _, id := range ids {
		property, err := s.propertyRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("お気に入り物件の取得に失敗しました: %w", err)
		}
		if property == nil {
			continue
		}
		properties = append(properties, property)
	}
	return properties, nil
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: auth_tokens → user（+ CASCADE: preferences, favorites）
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. 発行済みトークンをすべて失効
	if err := s.tokenRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("トークンの削除に失敗しました: %w", err)
	}

	// 2. ユーザーを削除（preferences, favoritesはCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
