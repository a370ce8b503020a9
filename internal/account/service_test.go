package account

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/sumika/internal/model"
)

// mockUserRepo はUserRepositoryのモック実装。
type mockUserRepo struct {
	findByIDFunc   func(ctx context.Context, id string) (*model.User, error)
	deleteByIDFunc func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFunc(ctx, id)
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error)    { return nil, nil }
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	return m.deleteByIDFunc(ctx, id)
}

// mockTokenRepo はTokenRepositoryのモック実装。
type mockTokenRepo struct {
	deleteByUserIDFunc func(ctx context.Context, userID string) error
}

func (m *mockTokenRepo) Create(ctx context.Context, token *model.AuthToken) error { return nil }
func (m *mockTokenRepo) Find(ctx context.Context, token string) (*model.AuthToken, error) {
	return nil, nil
}
func (m *mockTokenRepo) Delete(ctx context.Context, token string) error { return nil }
func (m *mockTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	return m.deleteByUserIDFunc(ctx, userID)
}
func (m *mockTokenRepo) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

// mockPrefRepo はPreferenceRepositoryのモック実装。
type mockPrefRepo struct {
	findByUserIDFunc func(ctx context.Context, userID string) (*model.Preferences, error)
	upsertFunc       func(ctx context.Context, prefs *model.Preferences) error
}

func (m *mockPrefRepo) FindByUserID(ctx context.Context, userID string) (*model.Preferences, error) {
	return m.findByUserIDFunc(ctx, userID)
}
func (m *mockPrefRepo) Upsert(ctx context.Context, prefs *model.Preferences) error {
	return m.upsertFunc(ctx, prefs)
}

// mockFavoriteRepo はFavoriteRepositoryのモック実装。
type mockFavoriteRepo struct {
	addFunc             func(ctx context.Context, userID, propertyID string) error
	removeFunc          func(ctx context.Context, userID, propertyID string) error
	listPropertyIDsFunc func(ctx context.Context, userID string) ([]string, error)
}

func (m *mockFavoriteRepo) Add(ctx context.Context, userID, propertyID string) error {
	return m.addFunc(ctx, userID, propertyID)
}
func (m *mockFavoriteRepo) Remove(ctx context.Context, userID, propertyID string) error {
	return m.removeFunc(ctx, userID, propertyID)
}
func (m *mockFavoriteRepo) ListPropertyIDs(ctx context.Context, userID string) ([]string, error) {
	return m.listPropertyIDsFunc(ctx, userID)
}

// mockPropertyRepo はPropertyRepositoryのモック実装。
type mockPropertyRepo struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Property, error)
}

func (m *mockPropertyRepo) FindByID(ctx context.Context, id string) (*model.Property, error) {
	return m.findByIDFunc(ctx, id)
}
func (m *mockPropertyRepo) List(ctx context.Context, filter model.PropertyFilter) ([]*model.Property, error) {
	return nil, nil
}
func (m *mockPropertyRepo) Create(ctx context.Context, property *model.Property) error { return nil }
func (m *mockPropertyRepo) Update(ctx context.Context, property *model.Property) error { return nil }
func (m *mockPropertyRepo) Delete(ctx context.Context, id string) error                { return nil }

func TestGetUser_AccessControl(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "target@example.com"}, nil
		},
	}
	svc := NewService(userRepo, nil, nil, nil, nil)

	tests := []struct {
		name          string
		requesterID   string
		requesterRole model.Role
		targetID      string
		wantForbidden bool
	}{
		{
			name:          "本人は取得可能",
			requesterID:   "user-1",
			requesterRole: model.RoleUser,
			targetID:      "user-1",
		},
		{
			name:          "管理者は他人を取得可能",
			requesterID:   "admin-1",
			requesterRole: model.RoleAdmin,
			targetID:      "user-1",
		},
		{
			name:          "他人は取得不可",
			requesterID:   "user-2",
			requesterRole: model.RoleUser,
			targetID:      "user-1",
			wantForbidden: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.GetUser(context.Background(), tt.requesterID, tt.requesterRole, tt.targetID)

			if tt.wantForbidden {
				var apiErr *model.APIError
				if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
					t.Errorf("error = %v, want FORBIDDEN", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("GetUser() error = %v", err)
			}
			if user.ID != tt.targetID {
				t.Errorf("user ID = %q, want %q", user.ID, tt.targetID)
			}
		})
	}
}

func TestGetUser_NotFound(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := NewService(userRepo, nil, nil, nil, nil)

	_, err := svc.GetUser(context.Background(), "user-1", model.RoleUser, "user-1")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("error = %v, want USER_NOT_FOUND", err)
	}
}

func TestUpdatePreferences_Validation(t *testing.T) {
	svc := NewService(nil, nil, &mockPrefRepo{}, nil, nil)

	tests := []struct {
		name  string
		prefs *model.Preferences
	}{
		{
			name: "下限が上限を超える予算",
			prefs: &model.Preferences{
				UserID: "user-1",
				Budget: model.BudgetRange{Min: 2000, Max: 1000},
			},
		},
		{
			name: "負の予算",
			prefs: &model.Preferences{
				UserID: "user-1",
				Budget: model.BudgetRange{Min: -100, Max: 1000},
			},
		},
		{
			name: "負の部屋数",
			prefs: &model.Preferences{
				UserID:      "user-1",
				MinBedrooms: -1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdatePreferences(context.Background(), tt.prefs)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
				t.Errorf("error = %v, want VALIDATION_ERROR", err)
			}
		})
	}
}

func TestUpdatePreferences_Success(t *testing.T) {
	var saved *model.Preferences
	prefRepo := &mockPrefRepo{
		upsertFunc: func(ctx context.Context, prefs *model.Preferences) error {
			saved = prefs
			return nil
		},
	}
	svc := NewService(nil, nil, prefRepo, nil, nil)

	prefs := &model.Preferences{
		UserID:       "user-1",
		Location:     "渋谷区",
		Budget:       model.BudgetRange{Min: 800, Max: 1500},
		PropertyType: string(model.PropertyTypeApartment),
		MinBedrooms:  1,
		Features:     []string{"parking", "pet-friendly"},
	}

	got, err := svc.UpdatePreferences(context.Background(), prefs)
	if err != nil {
		t.Fatalf("UpdatePreferences() error = %v", err)
	}
	if saved == nil {
		t.Fatal("preferences were not persisted")
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}
}

func TestAddFavorite_PropertyNotFound(t *testing.T) {
	propertyRepo := &mockPropertyRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
			return nil, nil
		},
	}
	svc := NewService(nil, nil, nil, &mockFavoriteRepo{}, propertyRepo)

	err := svc.AddFavorite(context.Background(), "user-1", "missing-prop")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodePropertyNotFound {
		t.Errorf("error = %v, want PROPERTY_NOT_FOUND", err)
	}
}

func TestAddFavorite_Success(t *testing.T) {
	propertyRepo := &mockPropertyRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
			return &model.Property{ID: id}, nil
		},
	}
	var addedUser, addedProp string
	favoriteRepo := &mockFavoriteRepo{
		addFunc: func(ctx context.Context, userID, propertyID string) error {
			addedUser, addedProp = userID, propertyID
			return nil
		},
	}
	svc := NewService(nil, nil, nil, favoriteRepo, propertyRepo)

	if err := svc.AddFavorite(context.Background(), "user-1", "prop-1"); err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	if addedUser != "user-1" || addedProp != "prop-1" {
		t.Errorf("added (%q, %q), want (user-1, prop-1)", addedUser, addedProp)
	}
}

func TestListFavorites_SkipsDeletedProperties(t *testing.T) {
	favoriteRepo := &mockFavoriteRepo{
		listPropertyIDsFunc: func(ctx context.Context, userID string) ([]string, error) {
			return []string{"prop-1", "prop-deleted", "prop-2"}, nil
		},
	}
	propertyRepo := &mockPropertyRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
			if id == "prop-deleted" {
				return nil, nil
			}
			return &model.Property{ID: id}, nil
		},
	}
	svc := NewService(nil, nil, nil, favoriteRepo, propertyRepo)

	properties, err := svc.ListFavorites(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListFavorites() error = %v", err)
	}
	if len(properties) != 2 {
		t.Fatalf("len = %d, want 2", len(properties))
	}
	if properties[0].ID != "prop-1" || properties[1].ID != "prop-2" {
		t.Errorf("got IDs %q, %q", properties[0].ID, properties[1].ID)
	}
}

func TestWithdraw_DeletesTokensBeforeUser(t *testing.T) {
	var order []string

	userRepo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteByIDFunc: func(ctx context.Context, id string) error {
			order = append(order, "user")
			return nil
		},
	}
	tokenRepo := &mockTokenRepo{
		deleteByUserIDFunc: func(ctx context.Context, userID string) error {
			order = append(order, "tokens")
			return nil
		},
	}
	svc := NewService(userRepo, tokenRepo, nil, nil, nil)

	if err := svc.Withdraw(context.Background(), "user-1"); err != nil {
		t.Fatalf("Withdraw() error = %v", err)
	}

	if len(order) != 2 || order[0] != "tokens" || order[1] != "user" {
		t.Errorf("deletion order = %v, want [tokens user]", order)
	}
}

func TestWithdraw_UserNotFound(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := NewService(userRepo, &mockTokenRepo{}, nil, nil, nil)

	err := svc.Withdraw(context.Background(), "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("error = %v, want USER_NOT_FOUND", err)
	}
}
