package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/postline/internal/auth"
	"github.com/geocoder89/postline/internal/config"
	"github.com/geocoder89/postline/internal/domain/user"
	"github.com/geocoder89/postline/internal/http/middlewares"
	"github.com/geocoder89/postline/internal/notifications"
	"github.com/geocoder89/postline/internal/repo/postgres"
	"github.com/geocoder89/postline/internal/security"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUserStore struct {
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	createFn     func(ctx context.Context, name, email, passwordHash, avatar string) (user.User, error)
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return f.getByEmailFn(ctx, email)
}

func (f *fakeUserStore) Create(ctx context.Context, name, email, passwordHash, avatar string) (user.User, error) {
	return f.createFn(ctx, name, email, passwordHash, avatar)
}

type fakeIssuer struct {
	token string
	err   error
}

func (f fakeIssuer) Issue(userID, name, avatar string) (string, error) {
	return f.token, f.err
}

type fakeNotifier struct {
	sent chan notifications.SendWelcomeInput
}

func (f *fakeNotifier) SendWelcome(ctx context.Context, input notifications.SendWelcomeInput) error {
	f.sent <- input
	return nil
}

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f fakeVerifier) Verify(token string) (*auth.Claims, error) {
	return f.claims, f.err
}

type fakeUserResolver struct {
	u   user.User
	err error
}

func (f fakeUserResolver) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.err != nil {
		return user.User{}, f.err
	}
	return f.u, nil
}

// authFor builds the real auth middleware around a canned identity so
// handler tests exercise the same context plumbing production does.
func authFor(u user.User) gin.HandlerFunc {
	mw := middlewares.NewAuthMiddleware(
		fakeVerifier{claims: &auth.Claims{UserID: u.ID, Name: u.Name, Avatar: u.Avatar}},
		fakeUserResolver{u: u},
	)

	return mw.RequireAuth()
}

func testConfig() config.Config {
	return config.Config{Env: "dev", JWTSecret: "test-secret-key", BcryptCost: bcrypt.MinCost, TokenTTLSeconds: 3600}
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var m map[string]interface{}

	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("could not decode body %q: %v", w.Body.String(), err)
	}

	return m
}

func TestRegisterSuccess(t *testing.T) {
	var created user.User

	store := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return user.User{}, postgres.ErrUserNotFound
		},
		createFn: func(ctx context.Context, name, email, passwordHash, avatar string) (user.User, error) {
			if passwordHash == "password1" {
				t.Error("password stored in plaintext")
			}
			if err := security.CheckPassword(passwordHash, "password1"); err != nil {
				t.Errorf("stored hash does not match the password: %v", err)
			}
			if !strings.Contains(avatar, "gravatar.com/avatar/") {
				t.Errorf("avatar is not a gravatar URL: %q", avatar)
			}

			created = user.User{
				ID:           "c0aa65b1-6c18-41b1-9c95-1a6b0f6a1111",
				Name:         name,
				Email:        email,
				PasswordHash: passwordHash,
				Avatar:       avatar,
				CreatedAt:    time.Now().UTC(),
				UpdatedAt:    time.Now().UTC(),
			}
			return created, nil
		},
	}

	notifier := &fakeNotifier{sent: make(chan notifications.SendWelcomeInput, 1)}
	h := NewUsersHandler(store, store, fakeIssuer{token: "tok-123"}, notifier, testConfig())

	r := gin.New()
	r.POST("/register", h.Register)

	w := doJSON(t, r, http.MethodPost, "/register",
		`{"name":"Al","email":"al@example.com","password":"password1","password2":"password1"}`, "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", w.Code, w.Body.String())
	}

	body := decodeMap(t, w)

	if body["email"] != "al@example.com" || body["name"] != "Al" {
		t.Errorf("unexpected body: %v", body)
	}
	if body["id"] != created.ID {
		t.Errorf("got id %v, want %s", body["id"], created.ID)
	}
	if strings.Contains(w.Body.String(), created.PasswordHash) {
		t.Error("response leaks the password hash")
	}

	select {
	case input := <-notifier.sent:
		if input.Email != "al@example.com" || input.UserID != created.ID {
			t.Errorf("welcome notification for the wrong user: %+v", input)
		}
	case <-time.After(time.Second):
		t.Error("welcome notification never sent")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return user.User{ID: "u1", Email: email}, nil
		},
		createFn: func(ctx context.Context, name, email, passwordHash, avatar string) (user.User, error) {
			t.Error("create must not run for a duplicate email")
			return user.User{}, nil
		},
	}

	h := NewUsersHandler(store, store, fakeIssuer{token: "tok-123"}, nil, testConfig())

	r := gin.New()
	r.POST("/register", h.Register)

	w := doJSON(t, r, http.MethodPost, "/register",
		`{"name":"Al","email":"al@example.com","password":"password1","password2":"password1"}`, "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}

	body := decodeMap(t, w)

	if body["email"] != "Email already exists" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRegisterLosesCreationRace(t *testing.T) {
	store := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return user.User{}, postgres.ErrUserNotFound
		},
		createFn: func(ctx context.Context, name, email, passwordHash, avatar string) (user.User, error) {
			return user.User{}, postgres.ErrEmailAlreadyUsed
		},
	}

	h := NewUsersHandler(store, store, fakeIssuer{token: "tok-123"}, nil, testConfig())

	r := gin.New()
	r.POST("/register", h.Register)

	w := doJSON(t, r, http.MethodPost, "/register",
		`{"name":"Al","email":"al@example.com","password":"password1","password2":"password1"}`, "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}

	body := decodeMap(t, w)

	if body["email"] != "Email already exists" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	store := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			t.Error("lookup must not run for an invalid payload")
			return user.User{}, postgres.ErrUserNotFound
		},
		createFn: func(ctx context.Context, name, email, passwordHash, avatar string) (user.User, error) {
			t.Error("create must not run for an invalid payload")
			return user.User{}, nil
		},
	}

	h := NewUsersHandler(store, store, fakeIssuer{token: "tok-123"}, nil, testConfig())

	r := gin.New()
	r.POST("/register", h.Register)

	w := doJSON(t, r, http.MethodPost, "/register", `{}`, "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}

	body := decodeMap(t, w)

	for _, field := range []string{"name", "email", "password", "password2"} {
		if body[field] == nil {
			t.Errorf("missing validation message for %s: %v", field, body)
		}
	}
}

func TestRegisterMalformedJSON(t *testing.T) {
	store := &fakeUserStore{}
	h := NewUsersHandler(store, store, fakeIssuer{token: "tok-123"}, nil, testConfig())

	r := gin.New()
	r.POST("/register", h.Register)

	w := doJSON(t, r, http.MethodPost, "/register", `{"name":`, "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}
}

func TestLogin(t *testing.T) {
	hash, err := security.HashPassword("password1", bcrypt.MinCost)

	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	known := user.User{ID: "u1", Name: "Al", Email: "al@example.com", PasswordHash: hash, Avatar: "a"}

	tests := []struct {
		name       string
		body       string
		storeErr   error
		wantStatus int
		wantField  string
		wantMsg    string
	}{
		{
			name:       "unknown_email",
			body:       `{"email":"nobody@example.com","password":"password1"}`,
			storeErr:   postgres.ErrUserNotFound,
			wantStatus: http.StatusNotFound,
			wantField:  "email",
			wantMsg:    "User not found",
		},
		{
			name:       "wrong_password",
			body:       `{"email":"al@example.com","password":"password2"}`,
			wantStatus: http.StatusNotFound,
			wantField:  "password",
			wantMsg:    "Password incorrect",
		},
		{
			name:       "missing_password",
			body:       `{"email":"al@example.com"}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "password",
			wantMsg:    "Password field is required",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUserStore{
				getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
					if tt.storeErr != nil {
						return user.User{}, tt.storeErr
					}
					return known, nil
				},
			}

			h := NewUsersHandler(store, store, fakeIssuer{token: "tok-123"}, nil, testConfig())

			r := gin.New()
			r.POST("/login", h.Login)

			w := doJSON(t, r, http.MethodPost, "/login", tt.body, "")

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}

			body := decodeMap(t, w)

			if body[tt.wantField] != tt.wantMsg {
				t.Fatalf("got %v for %s, want %q", body[tt.wantField], tt.wantField, tt.wantMsg)
			}
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	hash, err := security.HashPassword("password1", bcrypt.MinCost)

	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	store := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return user.User{ID: "u1", Name: "Al", Email: email, PasswordHash: hash}, nil
		},
	}

	h := NewUsersHandler(store, store, fakeIssuer{token: "tok-123"}, nil, testConfig())

	r := gin.New()
	r.POST("/login", h.Login)

	w := doJSON(t, r, http.MethodPost, "/login", `{"email":"al@example.com","password":"password1"}`, "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", w.Code, w.Body.String())
	}

	body := decodeMap(t, w)

	if body["success"] != true {
		t.Errorf("expected success true, got %v", body)
	}
	if body["token"] != "Bearer tok-123" {
		t.Errorf("got token %v, want Bearer tok-123", body["token"])
	}
}

func TestCurrent(t *testing.T) {
	u := user.User{ID: "u1", Name: "Al", Email: "al@example.com", PasswordHash: "hashed"}

	store := &fakeUserStore{}
	h := NewUsersHandler(store, store, fakeIssuer{token: "tok-123"}, nil, testConfig())

	r := gin.New()
	r.GET("/current", authFor(u), h.Current)

	t.Run("authenticated", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/current", "", "Bearer any")

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body %s", w.Code, w.Body.String())
		}

		body := decodeMap(t, w)

		if body["id"] != "u1" || body["name"] != "Al" || body["email"] != "al@example.com" {
			t.Errorf("unexpected body: %v", body)
		}
		if _, ok := body["password"]; ok {
			t.Error("current response must not carry password data")
		}
	})

	t.Run("missing_token", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/current", "", "")

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, want 401", w.Code)
		}
	})
}
