package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AnshRaj112/ridit-backend/internal/middleware"
	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

func as(sub string, role models.Role) *services.Claims {
	return &services.Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: sub, ID: "jti-" + sub}}
}

// serve routes one request through a chi router so URL params resolve.
// claims may be nil for an anonymous caller.
func serve(t *testing.T, method, pattern, target string, h http.HandlerFunc, claims *services.Claims, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if claims != nil {
				req = req.WithContext(middleware.WithClaims(req.Context(), claims))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Method(method, pattern, h)

	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestWriteErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrInvalidSession, http.StatusUnauthorized},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrNotSeller, http.StatusForbidden},
		{services.ErrNotCollector, http.StatusForbidden},
		{services.ErrSubscriptionInactive, http.StatusForbidden},
		{services.ErrOutOfRange, http.StatusForbidden},
		{services.ErrUserNotFound, http.StatusNotFound},
		{services.ErrItemNotFound, http.StatusNotFound},
		{services.ErrLocationNotSet, http.StatusNotFound},
		{services.ErrItemTaken, http.StatusConflict},
		{services.ErrInvalidTransition, http.StatusConflict},
		{services.ErrPhoneTaken, http.StatusConflict},
		{services.ErrEmailTaken, http.StatusConflict},
		{services.ErrUnsupportedImage, http.StatusBadRequest},
		{fmt.Errorf("accept: %w", services.ErrItemTaken), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		if rec.Code != tc.want {
			t.Errorf("writeError(%v) = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: password authentication failed"))
	if strings.Contains(rec.Body.String(), "pq:") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestWriteErrorValidationBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &services.ValidationError{
		Message: "invalid item",
		Fields:  map[string]string{"quantity_kg": "quantity_kg must be greater than 0"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	detail, ok := decodeBody(t, rec)["detail"].(map[string]interface{})
	if !ok {
		t.Fatalf("detail is not an object: %s", rec.Body.String())
	}
	if detail["message"] != "invalid item" {
		t.Errorf("message = %v", detail["message"])
	}
	fields, _ := detail["fields"].(map[string]interface{})
	if fields["quantity_kg"] == nil {
		t.Errorf("fields = %v, want quantity_kg", fields)
	}
}

func TestProfileRequiresSelf(t *testing.T) {
	rec := serve(t, "GET", "/auth/profile/{userId}", "/auth/profile/u1", GetProfile, nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want 401", rec.Code)
	}
	rec = serve(t, "GET", "/auth/profile/{userId}", "/auth/profile/u1", GetProfile, as("u2", models.RoleSeller), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("other user: status = %d, want 403", rec.Code)
	}
}

func TestAddItemIdentity(t *testing.T) {
	seller := as("s1", models.RoleSeller)

	rec := serve(t, "POST", "/seller/items/add", "/seller/items/add?seller_id=s2", AddItem, seller, strings.NewReader("{}"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign seller_id: status = %d, want 403", rec.Code)
	}

	rec = serve(t, "POST", "/seller/items/add", "/seller/items/add?seller_id=s1", AddItem, seller, strings.NewReader("{not json"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: status = %d, want 400", rec.Code)
	}
}

func TestListSellerItemsRequiresSelf(t *testing.T) {
	rec := serve(t, "GET", "/seller/items/{id}", "/seller/items/s2", ListSellerItems, as("s1", models.RoleSeller), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestSetLocationRequiresSelf(t *testing.T) {
	h := SetLocation(models.RoleCollector, "collectorId")
	body := strings.NewReader(`{"latitude":12.9,"longitude":77.6}`)
	rec := serve(t, "PUT", "/collector/location/{collectorId}", "/collector/location/c2", h, as("c1", models.RoleCollector), body)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestCollectorQueryIdentity(t *testing.T) {
	c := as("c1", models.RoleCollector)
	for name, h := range map[string]http.HandlerFunc{
		"available": AvailableItems,
		"accepted":  MyAcceptedItems,
		"accept":    AcceptItem,
	} {
		rec := serve(t, "GET", "/x/{itemId}", "/x/i1?collector_id=c2", h, c, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: status = %d, want 403", name, rec.Code)
		}
	}
}

func TestCompleteCollectionRejectsBadWeight(t *testing.T) {
	c := as("c1", models.RoleCollector)
	for _, target := range []string{
		"/collector/items/i1/complete?collector_id=c1",
		"/collector/items/i1/complete?collector_id=c1&actual_weight=heavy",
	} {
		rec := serve(t, "POST", "/collector/items/{itemId}/complete", target, CompleteCollection, c, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
			continue
		}
		detail, _ := decodeBody(t, rec)["detail"].(map[string]interface{})
		fields, _ := detail["fields"].(map[string]interface{})
		if fields["actual_weight"] == nil {
			t.Errorf("%s: fields = %v", target, fields)
		}
	}
}

func TestAdminCannotChangeOwnAccount(t *testing.T) {
	admin := as("a1", models.RoleAdmin)

	rec := serve(t, "PUT", "/admin/user/{userId}/role", "/admin/user/a1/role", AdminUpdateUserRole, admin, strings.NewReader(`{"role":"seller"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("role: status = %d, want 400", rec.Code)
	}
	rec = serve(t, "DELETE", "/admin/user/{userId}", "/admin/user/a1", AdminDeleteUser, admin, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("delete: status = %d, want 400", rec.Code)
	}
}

func TestAdminCreateUserValidates(t *testing.T) {
	admin := as("a1", models.RoleAdmin)

	rec := serve(t, "POST", "/admin/users/create", "/admin/users/create", AdminCreateUser, admin, strings.NewReader(`{"name":`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: status = %d, want 400", rec.Code)
	}

	rec = serve(t, "POST", "/admin/users/create", "/admin/users/create", AdminCreateUser, admin,
		strings.NewReader(`{"name":"Ops","phone":"9876543210","password":"secret1","role":"admin"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("admin without email: status = %d, want 400", rec.Code)
	}
	detail, _ := decodeBody(t, rec)["detail"].(map[string]interface{})
	fields, _ := detail["fields"].(map[string]interface{})
	if fields["email"] == nil {
		t.Errorf("fields = %v, want email", fields)
	}

	rec = serve(t, "POST", "/admin/users/create", "/admin/users/create", AdminCreateUser, admin,
		strings.NewReader(`{"name":"X","phone":"12","password":"123","role":"owner"}`))
	detail, _ = decodeBody(t, rec)["detail"].(map[string]interface{})
	fields, _ = detail["fields"].(map[string]interface{})
	for _, f := range []string{"phone", "password", "role"} {
		if fields[f] == nil {
			t.Errorf("missing field error for %s in %v", f, fields)
		}
	}
}

func TestAdminLoginRequiresFields(t *testing.T) {
	rec := serve(t, "POST", "/admin/login", "/admin/login", AdminLogin, nil, strings.NewReader(`{"email":"admin@ridit.local"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestItemsWebSocketRequiresToken(t *testing.T) {
	rec := serve(t, "GET", "/ws/items", "/ws/items", ItemsWebSocket, nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

type fakeUploader struct {
	url  string
	err  error
	name string
}

func (f *fakeUploader) UploadItemImage(_ context.Context, fh *multipart.FileHeader) (string, error) {
	f.name = fh.Filename
	return f.url, f.err
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(content)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, field string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, field, "bottles.png", []byte("\x89PNG\r\n\x1a\n0000"))
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	UploadImage(rec, req)
	return rec
}

func TestUploadImage(t *testing.T) {
	t.Cleanup(func() { SetImageUploader(nil) })

	SetImageUploader(nil)
	if rec := upload(t, "file"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured: status = %d, want 503", rec.Code)
	}

	fake := &fakeUploader{url: "https://res.cloudinary.com/demo/ridit/items/x.png"}
	SetImageUploader(fake)

	rec := upload(t, "file")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp UploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.URL != fake.url || fake.name != "bottles.png" {
		t.Errorf("resp = %+v, uploaded %q", resp, fake.name)
	}

	if rec := upload(t, "image"); rec.Code != http.StatusBadRequest {
		t.Errorf("wrong field: status = %d, want 400", rec.Code)
	}

	fake.err = services.ErrUnsupportedImage
	if rec := upload(t, "file"); rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported: status = %d, want 400", rec.Code)
	}
}
