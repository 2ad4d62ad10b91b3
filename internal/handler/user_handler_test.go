package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/user"
)

// --- モック定義 ---

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	getFn           func(ctx context.Context, id string) (*model.User, error)
	updateDetailsFn func(ctx context.Context, id string, input user.UpdateDetailsInput) (*model.User, error)
	deleteFn        func(ctx context.Context, id string) error
	listFn          func(ctx context.Context) ([]*model.User, error)
	searchFn        func(ctx context.Context, query string) ([]*model.User, error)
	statsFn         func(ctx context.Context) ([]model.UserStat, error)
}

func (m *mockUserService) Get(ctx context.Context, id string) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserService) UpdateDetails(ctx context.Context, id string, input user.UpdateDetailsInput) (*model.User, error) {
	if m.updateDetailsFn != nil {
		return m.updateDetailsFn(ctx, id, input)
	}
	return nil, nil
}

func (m *mockUserService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserService) Search(ctx context.Context, query string) ([]*model.User, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return nil, nil
}

func (m *mockUserService) Stats(ctx context.Context) ([]model.UserStat, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return nil, nil
}

// mockPasswordUpdater はPasswordUpdaterのモック実装。
type mockPasswordUpdater struct {
	updatePasswordFn func(ctx context.Context, userID, currentPassword, newPassword string) error
}

func (m *mockPasswordUpdater) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, userID, currentPassword, newPassword)
	}
	return nil
}

// --- GET /api/users/user/{userId} テスト ---

func TestUserHandler_GetUser_Success(t *testing.T) {
	svc := &mockUserService{
		getFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{
				ID:    id,
				Email: "user@example.com",
				Name:  "山田 太郎",
				Phone: []string{"090-0000-0000"},
			}, nil
		},
	}
	h := NewUserHandler(svc, &mockPasswordUpdater{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/user/u1", nil)
	req = withChiURLParam(req, "userId", "u1")
	w := httptest.NewRecorder()

	h.GetUser(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp userResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "u1" || resp.Email != "user@example.com" {
		t.Errorf("response = %+v", resp)
	}
}

func TestUserHandler_GetUser_NotFound(t *testing.T) {
	svc := &mockUserService{
		getFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewUserHandler(svc, &mockPasswordUpdater{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/user/missing", nil)
	req = withChiURLParam(req, "userId", "missing")
	w := httptest.NewRecorder()

	h.GetUser(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- PUT /api/users/{userId} テスト ---

func TestUserHandler_UpdateUser_PassesInput(t *testing.T) {
	var gotInput user.UpdateDetailsInput
	svc := &mockUserService{
		updateDetailsFn: func(ctx context.Context, id string, input user.UpdateDetailsInput) (*model.User, error) {
			gotInput = input
			return &model.User{ID: id, Name: input.Name, ProfileCreated: true}, nil
		},
	}
	h := NewUserHandler(svc, &mockPasswordUpdater{})

	body := bytes.NewBufferString(`{
		"name": "山田 太郎",
		"address": {"street": "1-2-3", "city": "渋谷区", "state": "東京都"},
		"add_info": "マンション201号室",
		"phone": ["090-0000-0000"]
	}`)
	req := httptest.NewRequest(http.MethodPut, "/api/users/u1", body)
	req = withChiURLParam(req, "userId", "u1")
	w := httptest.NewRecorder()

	h.UpdateUser(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if gotInput.Name != "山田 太郎" {
		t.Errorf("name = %q", gotInput.Name)
	}
	if gotInput.Address.City != "渋谷区" {
		t.Errorf("city = %q", gotInput.Address.City)
	}
	var resp userResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.ProfileCreated {
		t.Error("profile_created should be true after update")
	}
}

// --- PUT /api/users/update-password/{userId} テスト ---

func TestUserHandler_UpdatePassword_Success(t *testing.T) {
	var gotCurrent, gotNew string
	accounts := &mockPasswordUpdater{
		updatePasswordFn: func(ctx context.Context, userID, currentPassword, newPassword string) error {
			gotCurrent = currentPassword
			gotNew = newPassword
			return nil
		},
	}
	h := NewUserHandler(&mockUserService{}, accounts)

	body := bytes.NewBufferString(`{"current_password":"OldPass1!","new_password":"NewPass1!"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/users/update-password/u1", body)
	req = withChiURLParam(req, "userId", "u1")
	w := httptest.NewRecorder()

	h.UpdatePassword(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotCurrent != "OldPass1!" || gotNew != "NewPass1!" {
		t.Errorf("received (%q, %q)", gotCurrent, gotNew)
	}
}

func TestUserHandler_UpdatePassword_WrongCurrentPassword(t *testing.T) {
	accounts := &mockPasswordUpdater{
		updatePasswordFn: func(ctx context.Context, userID, currentPassword, newPassword string) error {
			return model.NewInvalidCredentialsError()
		},
	}
	h := NewUserHandler(&mockUserService{}, accounts)

	body := bytes.NewBufferString(`{"current_password":"wrong","new_password":"NewPass1!"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/users/update-password/u1", body)
	req = withChiURLParam(req, "userId", "u1")
	w := httptest.NewRecorder()

	h.UpdatePassword(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- DELETE /api/users/{userId} テスト ---

func TestUserHandler_DeleteUser(t *testing.T) {
	var deleted string
	svc := &mockUserService{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	h := NewUserHandler(svc, &mockPasswordUpdater{})

	req := httptest.NewRequest(http.MethodDelete, "/api/users/u1", nil)
	req = withChiURLParam(req, "userId", "u1")
	w := httptest.NewRecorder()

	h.DeleteUser(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deleted != "u1" {
		t.Errorf("deleted id = %q, want %q", deleted, "u1")
	}
}

// --- GET /api/users/user-stats テスト ---

func TestUserHandler_UserStats(t *testing.T) {
	svc := &mockUserService{
		statsFn: func(ctx context.Context) ([]model.UserStat, error) {
			return []model.UserStat{
				{IsAdmin: false, Total: 42},
				{IsAdmin: true, Total: 3},
			}, nil
		},
	}
	h := NewUserHandler(svc, &mockPasswordUpdater{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/user-stats", nil)
	w := httptest.NewRecorder()

	h.UserStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp []userStatResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 || resp[0].Total != 42 {
		t.Errorf("response = %+v", resp)
	}
}
