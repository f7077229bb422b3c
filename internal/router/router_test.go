package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/cinema-booking/internal/clock"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository/memory"
	"github.com/iliyamo/cinema-booking/internal/service"
)

const secret = "test-secret"

type api struct {
	e     *echo.Echo
	owner string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.New()
	clk := clock.NewFixed(time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("", 7*3600)), 7*time.Hour)
	accounts := service.NewAccountService(store, clk, service.TokenConfig{
		Secret:     secret,
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	_, err := accounts.BootstrapOwner(context.Background(), "owner@example.com", "secret1", "Owner")
	require.NoError(t, err)

	e := echo.New()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler
	Register(e, Handlers{
		Auth:         handler.NewAuthHandler(accounts, time.Second),
		Rooms:        handler.NewRoomHandler(service.NewRoomService(store, clk), time.Second),
		Showtimes:    handler.NewShowtimeHandler(service.NewShowtimeService(store, clk), clk, time.Second),
		Transactions: handler.NewTransactionHandler(service.NewBookingService(store, clk, nil), time.Second),
		Catalog:      handler.NewCatalogHandler(service.NewCatalogService(store, clk), time.Second),
		Reports:      handler.NewReportHandler(service.NewReportService(store, clk), time.Second),
	}, Options{JWTSecret: secret, Roles: accounts})

	a := &api{e: e}
	a.owner = a.login(t, "owner@example.com", "secret1")
	return a
}

func (a *api) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type authBody struct {
	Access struct {
		Token string `json:"token"`
	} `json:"access"`
	Refresh struct {
		Token string `json:"token"`
	} `json:"refresh"`
}

type errBody struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Fields []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"fields"`
}

type idBody struct {
	ID uint64 `json:"id"`
}

func (a *api) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[authBody](t, rec).Access.Token
}

func (a *api) register(t *testing.T, email string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{"email": email, "password": "secret1", "name": "Guest"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authBody](t, rec).Access.Token
}

func (a *api) create(t *testing.T, path string, body any) uint64 {
	t.Helper()
	rec := a.do(t, http.MethodPost, path, a.owner, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[idBody](t, rec).ID
}

// schedule creates a 2x2 room with one NONE slot and a 14:00 showtime in it.
func (a *api) schedule(t *testing.T) model.ShowtimeDetail {
	t.Helper()
	roomType := a.create(t, "/v1/room-types", map[string]any{"name": "2D"})
	movie := a.create(t, "/v1/movies", map[string]any{"title": "Arrival", "duration": 120})
	room := a.create(t, "/v1/rooms", map[string]any{
		"name":     "Hall 1",
		"roomType": roomType,
		"seats":    [][]string{{"SINGLE", "SINGLE"}, {"DOUBLE", "NONE"}},
	})
	rec := a.do(t, http.MethodPost, "/v1/show-times", a.owner, map[string]any{
		"movieId":     movie,
		"roomId":      room,
		"startTime":   "2025-03-01T14:00:00",
		"singlePrice": 50,
		"doublePrice": 90,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.ShowtimeDetail](t, rec)
}

func TestBookingFlow(t *testing.T) {
	a := newAPI(t)
	st := a.schedule(t)

	require.Len(t, st.Tickets, 2)
	assert.Nil(t, st.Tickets[1][1])
	a1 := st.Tickets[0][0]
	b1 := st.Tickets[1][0]
	assert.Equal(t, "A1", a1.SeatName)
	assert.Equal(t, int64(90), b1.Price)

	ana := a.register(t, "ana@example.com")
	bo := a.register(t, "bo@example.com")

	rec := a.do(t, http.MethodPost, "/v1/transactions", ana, map[string]any{"tickets": []uint64{a1.ID, b1.ID}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tr := decode[model.TransactionView](t, rec)
	assert.Equal(t, int64(140), tr.TotalPrice)
	assert.Equal(t, []uint64{a1.ID, b1.ID}, tr.TicketIDs)

	rec = a.do(t, http.MethodPost, "/v1/transactions", bo, map[string]any{"tickets": []uint64{a1.ID}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	eb := decode[errBody](t, rec)
	assert.Equal(t, "conflict", eb.Kind)
	assert.Contains(t, eb.Error, "seat A1")

	rec = a.do(t, http.MethodPut, fmt.Sprintf("/v1/show-times/%d", st.ID), a.owner, map[string]any{
		"movieId": st.MovieID, "roomId": st.RoomID, "startTime": "2025-03-01T15:00:00+07:00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/transactions", bo, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string][]model.TransactionView](t, rec)["items"])

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/v1/transactions/%d", tr.ID), bo, nil)
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/v1/show-times/%d", st.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[model.ShowtimeDetail](t, rec).Tickets[0][0].Booked)

	rec = a.do(t, http.MethodGet, "/v1/reports/dashboard", ana, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodGet, "/v1/reports/dashboard", a.owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(140), decode[model.Dashboard](t, rec).Revenue)
}

func TestErrorResponses(t *testing.T) {
	a := newAPI(t)
	customer := a.register(t, "ana@example.com")
	room := map[string]any{"name": "Hall 1", "roomType": 1, "seats": [][]string{{"SINGLE"}}}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		kind   string
	}{
		{"anonymous write", http.MethodPost, "/v1/rooms", "", room, http.StatusUnauthorized, "unauthorized"},
		{"garbage token", http.MethodGet, "/v1/rooms", "nope", nil, http.StatusUnauthorized, "unauthorized"},
		{"customer write", http.MethodPost, "/v1/rooms", customer, room, http.StatusForbidden, "forbidden"},
		{"malformed json", http.MethodPost, "/v1/rooms", a.owner, `{"name":`, http.StatusBadRequest, "bad_request"},
		{"unknown room type", http.MethodPost, "/v1/rooms", a.owner, room, http.StatusNotAcceptable, "not_found"},
		{"unknown showtime", http.MethodGet, "/v1/show-times/999", "", nil, http.StatusNotAcceptable, "not_found"},
		{"bad date", http.MethodGet, "/v1/show-times?date=01-03-2025", "", nil, http.StatusBadRequest, "bad_request"},
		{"bad id", http.MethodGet, "/v1/rooms/abc", "", nil, http.StatusBadRequest, "bad_request"},
		{"empty booking", http.MethodPost, "/v1/transactions", customer, map[string]any{"tickets": []uint64{}}, http.StatusUnprocessableEntity, "validation"},
		{"wrong login", http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "ana@example.com", "password": "nope"}, http.StatusUnauthorized, "unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.path, tt.token, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.kind, decode[errBody](t, rec).Kind)
		})
	}
}

func TestInvalidSeatIsReportedByCell(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodPost, "/v1/rooms", a.owner, map[string]any{
		"name": "Hall 1", "roomType": 1, "seats": [][]string{{"SINGLE", "VIP"}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	eb := decode[errBody](t, rec)
	require.Len(t, eb.Fields, 1)
	assert.Equal(t, "seats[0][1]", eb.Fields[0].Field)
}

func TestStaffProvisioningAndLogout(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/v1/users", a.owner, map[string]string{
		"email": "sam@example.com", "password": "secret1", "name": "Sam", "role": "STAFF",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	staff := a.login(t, "sam@example.com", "secret1")
	rec = a.do(t, http.MethodPost, "/v1/movies", staff, map[string]any{"title": "Heat", "duration": 170})
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = a.do(t, http.MethodPost, "/v1/room-types", staff, map[string]any{"name": "IMAX"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "sam@example.com", "password": "secret1"})
	refresh := decode[authBody](t, rec).Refresh.Token
	rec = a.do(t, http.MethodPost, "/v1/auth/logout", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/me", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "STAFF", decode[map[string]any](t, rec)["role"])
}

func TestOperationalEndpoints(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/healthz", "", nil).Code)
	rec := a.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLowercaseSeatClassesAreAccepted(t *testing.T) {
	a := newAPI(t)
	roomType := a.create(t, "/v1/room-types", map[string]any{"name": "2D"})
	rec := a.do(t, http.MethodPost, "/v1/rooms", a.owner, map[string]any{
		"name": "Hall 1", "roomType": roomType, "seats": [][]string{{"single", "double", "none"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/v1/rooms?roomTypeId=%d", roomType), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]idBody](t, rec)["items"], 1)

	rec = a.do(t, http.MethodGet, "/v1/rooms?roomTypeId=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaffManagement(t *testing.T) {
	a := newAPI(t)
	for _, u := range []map[string]string{
		{"email": "sam@example.com", "password": "secret1", "name": "Sam", "role": "STAFF"},
		{"email": "mia@example.com", "password": "secret1", "name": "Mia", "role": "MANAGER"},
		{"email": "lee@example.com", "password": "secret1", "name": "Lee", "role": "STAFF"},
	} {
		rec := a.do(t, http.MethodPost, "/v1/users", a.owner, u)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	manager := a.login(t, "mia@example.com", "secret1")
	staff := a.login(t, "sam@example.com", "secret1")

	rec := a.do(t, http.MethodGet, "/v1/users", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[map[string][]map[string]any](t, rec)["items"]
	require.Len(t, users, 3)
	byEmail := map[string]uint64{}
	for _, u := range users {
		byEmail[u["email"].(string)] = uint64(u["id"].(float64))
	}
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, "/v1/users", staff, nil).Code)

	path := fmt.Sprintf("/v1/users/%d", byEmail["sam@example.com"])
	rec = a.do(t, http.MethodPut, path, manager, map[string]string{"email": "samuel@example.com", "name": "Samuel", "role": "STAFF"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "samuel@example.com", decode[map[string]any](t, rec)["email"])

	rec = a.do(t, http.MethodPut, path, manager, map[string]string{"email": "samuel@example.com", "name": "Samuel", "role": "MANAGER"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "only owners promote")
	rec = a.do(t, http.MethodPut, path, manager, map[string]string{"email": "lee@example.com", "name": "Samuel", "role": "STAFF"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "email taken")

	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/v1/users/%d", byEmail["mia@example.com"]), manager, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "managers cannot remove managers")

	rec = a.do(t, http.MethodDelete, path, manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/v1/me", staff, nil).Code)
	rec = a.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "samuel@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodDelete, "/v1/users", a.owner, map[string]any{"ids": []uint64{byEmail["mia@example.com"], byEmail["lee@example.com"]}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodGet, "/v1/users", a.owner, nil)
	assert.Empty(t, decode[map[string][]map[string]any](t, rec)["items"])
}

func TestChangePassword(t *testing.T) {
	a := newAPI(t)
	token := a.register(t, "ana@example.com")

	rec := a.do(t, http.MethodPut, "/v1/me/password", token, map[string]string{"password": "wrong", "newPassword": "secret2"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = a.do(t, http.MethodPut, "/v1/me/password", token, map[string]string{"password": "secret1", "newPassword": "123"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = a.do(t, http.MethodPut, "/v1/me/password", "", map[string]string{"password": "secret1", "newPassword": "secret2"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPut, "/v1/me/password", token, map[string]string{"password": "secret1", "newPassword": "secret2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "ana@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	a.login(t, "ana@example.com", "secret2")
}
