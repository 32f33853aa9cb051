package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/subtrack/internal/auth"
	"github.com/MrJamesThe3rd/subtrack/internal/billing"
	"github.com/MrJamesThe3rd/subtrack/internal/category"
	"github.com/MrJamesThe3rd/subtrack/internal/expense"
	apihttp "github.com/MrJamesThe3rd/subtrack/internal/http"
	authhttp "github.com/MrJamesThe3rd/subtrack/internal/http/auth"
	categoryhttp "github.com/MrJamesThe3rd/subtrack/internal/http/category"
	expensehttp "github.com/MrJamesThe3rd/subtrack/internal/http/expense"
	"github.com/MrJamesThe3rd/subtrack/internal/listing"
)

var (
	secret = []byte("router-test-secret")
	now    = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
)

func clock() time.Time { return now }

type fixture struct {
	handler    http.Handler
	authRepo   *auth.MockRepository
	expenses   *expense.MockRepository
	categories *category.MockRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &fixture{
		authRepo:   auth.NewMockRepository(ctrl),
		expenses:   expense.NewMockRepository(ctrl),
		categories: category.NewMockRepository(ctrl),
	}

	authSvc := auth.NewService(f.authRepo, auth.Config{
		Secret:         secret,
		AccessTokenTTL: time.Hour,
		Now:            clock,
	})

	f.handler = apihttp.New(
		apihttp.Options{AllowedOrigins: []string{"http://localhost:3000"}},
		authSvc,
		authhttp.NewHandler(authSvc),
		expensehttp.NewHandler(expense.NewService(f.expenses, clock)),
		categoryhttp.NewHandler(category.NewService(f.categories)),
	)

	return f
}

func bearerToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Username:  "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString(secret)
	require.NoError(t, err)

	return token
}

func (f *fixture) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	type testCase struct {
		name    string
		token   string
		message string
	}

	tests := []testCase{
		{name: "Missing", token: "", message: "JWT Token not found"},
		{name: "Garbage", token: "abc.def.ghi", message: "Invalid JWT Token"},
		{name: "Expired", token: "expired", message: "Expired JWT Token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			token := tt.token
			if token == "expired" {
				token = bearerToken(t, now.Add(-time.Minute))
			}

			rec := f.do(t, http.MethodGet, "/api/recurring_expenses", "", token)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			body := decode(t, rec)
			assert.EqualValues(t, 401, body["code"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestRouter_LoginCheck(t *testing.T) {
	f := newFixture(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &auth.User{ID: uuid.New(), Email: "jane@example.com", PasswordHash: string(hash), FirstName: "Jane"}

	f.authRepo.EXPECT().GetUserByEmail(gomock.Any(), "jane@example.com").Return(user, nil).Times(2)
	f.authRepo.EXPECT().CreateRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	rec := f.do(t, http.MethodPost, "/api/login_check", `{"email":"jane@example.com","password":"correct horse"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["refresh_token"])

	me := f.do(t, http.MethodGet, "/api/me", "", body["token"].(string))
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "jane@example.com", decode(t, me)["email"])

	rec = f.do(t, http.MethodPost, "/api/login_check", `{"email":"jane@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials.", decode(t, rec)["message"])
}

func TestRouter_TokenRefreshRejected(t *testing.T) {
	f := newFixture(t)

	f.authRepo.EXPECT().GetRefreshToken(gomock.Any(), gomock.Any()).Return(nil, auth.ErrInvalidRefreshToken)

	rec := f.do(t, http.MethodPost, "/api/token/refresh", `{"refresh_token":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ListExpenses(t *testing.T) {
	f := newFixture(t)
	token := bearerToken(t, now.Add(time.Hour))

	catID := uuid.New()
	stale := &expense.Expense{
		ID:              uuid.New(),
		Name:            "Netflix",
		Amount:          decimal.RequireFromString("15.9"),
		Currency:        "USD",
		Interval:        billing.IntervalMonthly,
		NextBillingDate: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		CategoryID:      &catID,
		Category:        &category.Category{ID: catID, Name: "Streaming"},
		IsActive:        true,
	}

	f.expenses.EXPECT().
		ListExpenses(gomock.Any(), expense.ListFilter{
			Currency: new("USD"),
			IsActive: new(true),
			Sort:     &listing.Sort{Field: "amount", Direction: listing.Desc},
			Page:     listing.Page{Number: 2, Size: listing.MaxPageSize},
		}).
		Return(listing.Result[*expense.Expense]{Items: []*expense.Expense{stale}, Total: 101}, nil)
	f.expenses.EXPECT().
		UpdateNextBillingDate(gomock.Any(), stale.ID, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)).
		Return(nil)

	rec := f.do(t, http.MethodGet,
		"/api/recurring_expenses?currency=usd&isActive=true&order[amount]=DESC&page=2&itemsPerPage=500", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Member []struct {
			Name            string `json:"name"`
			Amount          string `json:"amount"`
			NextBillingDate string `json:"nextBillingDate"`
			IsActive        bool   `json:"isActive"`
			Category        struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"category"`
		} `json:"member"`
		TotalItems int `json:"totalItems"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, 101, body.TotalItems)
	require.Len(t, body.Member, 1)
	assert.Equal(t, "15.90", body.Member[0].Amount)
	assert.Equal(t, "2024-03-31", body.Member[0].NextBillingDate)
	assert.Equal(t, "Streaming", body.Member[0].Category.Name)
	assert.True(t, body.Member[0].IsActive)
}

func TestRouter_ListExpenses_BadQuery(t *testing.T) {
	f := newFixture(t)
	token := bearerToken(t, now.Add(time.Hour))

	for _, q := range []string{"isActive=maybe", "page=0", "itemsPerPage=x", "order[name]=sideways"} {
		rec := f.do(t, http.MethodGet, "/api/recurring_expenses?"+q, "", token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestRouter_CreateExpense(t *testing.T) {
	type testCase struct {
		name       string
		body       string
		setupMock  func(m *expense.MockRepository)
		wantStatus int
		check      func(t *testing.T, body map[string]any)
	}

	catID := uuid.New()

	tests := []testCase{
		{
			name: "Created",
			body: `{"name":"Gym","amount":"30","currency":"eur","interval":"monthly",` +
				`"nextBillingDate":"2024-04-01T00:00:00+00:00","category":"/api/recurring_categories/` + catID.String() + `"}`,
			setupMock: func(m *expense.MockRepository) {
				m.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, e *expense.Expense) error {
						assert.Equal(t, catID, *e.CategoryID)
						e.ID = uuid.New()
						e.Category = &category.Category{ID: catID, Name: "Health"}

						return nil
					})
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "30.00", body["amount"])
				assert.Equal(t, "EUR", body["currency"])
				assert.Equal(t, "2024-04-01", body["nextBillingDate"])
				assert.Equal(t, true, body["isActive"])
			},
		},
		{
			name:       "Invalid",
			body:       `{"name":"","amount":"-1","currency":"EUR","interval":"monthly","nextBillingDate":"2024-04-01"}`,
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body["message"], "name: this value should not be blank")
			},
		},
		{
			name: "UnknownCategory",
			body: `{"name":"Gym","amount":"30","currency":"EUR","interval":"monthly","nextBillingDate":"2024-04-01",` +
				`"category":"` + catID.String() + `"}`,
			setupMock: func(m *expense.MockRepository) {
				m.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).Return(expense.ErrUnknownCategory)
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "BadCategoryRef",
			body:       `{"name":"Gym","amount":"30","currency":"EUR","interval":"monthly","nextBillingDate":"2024-04-01","category":42}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "MalformedJSON",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "BadDate",
			body:       `{"name":"Gym","nextBillingDate":"next tuesday"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setupMock != nil {
				tt.setupMock(f.expenses)
			}

			rec := f.do(t, http.MethodPost, "/api/recurring_expenses", tt.body, bearerToken(t, now.Add(time.Hour)))
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.check != nil {
				tt.check(t, decode(t, rec))
			}
		})
	}
}

func TestRouter_PatchExpense_ClearsCategory(t *testing.T) {
	f := newFixture(t)

	id := uuid.New()
	catID := uuid.New()
	stored := &expense.Expense{
		ID:              id,
		Name:            "Gym",
		Amount:          decimal.RequireFromString("30"),
		Currency:        "EUR",
		Interval:        billing.IntervalMonthly,
		NextBillingDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		CategoryID:      &catID,
		Category:        &category.Category{ID: catID, Name: "Health"},
		IsActive:        true,
	}

	f.expenses.EXPECT().GetExpense(gomock.Any(), id).Return(stored, nil)
	f.expenses.EXPECT().UpdateExpense(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *expense.Expense) error {
			assert.Nil(t, e.CategoryID)
			assert.False(t, e.IsActive)

			return nil
		})

	rec := f.do(t, http.MethodPatch, "/api/recurring_expenses/"+id.String(),
		`{"category":null,"isActive":false}`, bearerToken(t, now.Add(time.Hour)))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Nil(t, body["category"])
	assert.Equal(t, false, body["isActive"])
	assert.Equal(t, "Gym", body["name"])
}

func TestRouter_GetExpense_NotFound(t *testing.T) {
	f := newFixture(t)
	token := bearerToken(t, now.Add(time.Hour))

	id := uuid.New()
	f.expenses.EXPECT().GetExpense(gomock.Any(), id).Return(nil, expense.ErrNotFound)

	rec := f.do(t, http.MethodGet, "/api/recurring_expenses/"+id.String(), "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/recurring_expenses/not-a-uuid", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_DeleteExpense(t *testing.T) {
	f := newFixture(t)

	id := uuid.New()
	f.expenses.EXPECT().DeleteExpense(gomock.Any(), id).Return(nil)

	rec := f.do(t, http.MethodDelete, "/api/recurring_expenses/"+id.String(), "", bearerToken(t, now.Add(time.Hour)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_CreateCategory_Duplicate(t *testing.T) {
	f := newFixture(t)

	f.categories.EXPECT().CreateCategory(gomock.Any(), gomock.Any()).Return(category.ErrDuplicateName)

	rec := f.do(t, http.MethodPost, "/api/recurring_categories", `{"name":"streaming"}`, bearerToken(t, now.Add(time.Hour)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Category name already exists.", decode(t, rec)["message"])
}

func TestRouter_ListCategories(t *testing.T) {
	f := newFixture(t)

	f.categories.EXPECT().
		ListCategories(gomock.Any(), category.ListFilter{
			Name: new("stream"),
			Sort: &listing.Sort{Field: "name", Direction: listing.Asc},
			Page: listing.Page{Number: 1, Size: listing.DefaultPageSize},
		}).
		Return(listing.Result[*category.Category]{
			Items: []*category.Category{{ID: uuid.New(), Name: "Streaming"}},
			Total: 1,
		}, nil)

	rec := f.do(t, http.MethodGet, "/api/recurring_categories?name=stream&order[name]=asc", "", bearerToken(t, now.Add(time.Hour)))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.EqualValues(t, 1, body["totalItems"])
}
