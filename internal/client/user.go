package client

import (
	"context"
	"net/http"
)

// GetUser は指定IDのユーザー情報を取得する。
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/"+userID, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetPreferences は指定ユーザーの希望条件を取得する。
func (c *Client) GetPreferences(ctx context.Context, userID string) (*Preferences, error) {
	var prefs Preferences
	if err := c.do(ctx, http.MethodGet, "/users/"+userID+"/preferences", nil, &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// UpdatePreferences は指定ユーザーの希望条件を保存する。
func (c *Client) UpdatePreferences(ctx context.Context, userID string, prefs Preferences) (*Preferences, error) {
	var saved Preferences
	if err := c.do(ctx, http.MethodPut, "/users/"+userID+"/preferences", prefs, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetFavorites は指定ユーザーのお気に入り物件IDリストを取得する。
func (c *Client) GetFavorites(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := c.do(ctx, http.MethodGet, "/users/"+userID+"/favorites", nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// AddFavorite は物件をお気に入りに追加する。既に追加済みでもエラーにならない。
func (c *Client) AddFavorite(ctx context.Context, userID, propertyID string) error {
	return c.do(ctx, http.MethodPost, "/users/"+userID+"/favorites/"+propertyID, nil, nil)
}

// RemoveFavorite は物件をお気に入りから削除する。
func (c *Client) RemoveFavorite(ctx context.Context, userID, propertyID string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+userID+"/favorites/"+propertyID, nil, nil)
}
