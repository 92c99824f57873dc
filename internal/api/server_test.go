package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"sharehub/internal/database"
	"sharehub/internal/models"
	"sharehub/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiTest struct {
	t       *testing.T
	handler http.Handler
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := service.NewUserService(db, &logger)
	items := service.NewItemService(db, nil, nil, &logger)
	bookings := service.NewBookingService(db, nil, nil, &logger)
	requests := service.NewRequestService(db, &logger)

	srv := NewServer(0, users, items, bookings, requests, &logger)
	return &apiTest{t: t, handler: srv.Handler()}
}

// do runs a request through the full middleware stack. A zero userID leaves
// the identity header off.
func (a *apiTest) do(method, path string, userID int64, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != 0 {
		req.Header.Set(models.HeaderUserID, strconv.FormatInt(userID, 10))
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *apiTest) decode(rec *httptest.ResponseRecorder, dst any) {
	a.t.Helper()
	require.NoError(a.t, json.NewDecoder(rec.Body).Decode(dst))
}

func (a *apiTest) createUser(name, email string) models.User {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/users", 0, map[string]string{"name": name, "email": email})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var user models.User
	a.decode(rec, &user)
	return user
}

func (a *apiTest) createItem(ownerID int64, name string) models.Item {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/items", ownerID, map[string]any{
		"name": name, "description": name + " description", "available": true,
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var item models.Item
	a.decode(rec, &item)
	return item
}

func (a *apiTest) createBooking(bookerID, itemID int64, start, end time.Time) models.BookingView {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/bookings", bookerID, map[string]any{
		"itemId": itemID,
		"start":  start.Format("2006-01-02T15:04:05"),
		"end":    end.Format("2006-01-02T15:04:05"),
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var view models.BookingView
	a.decode(rec, &view)
	return view
}

func TestUserEndpoints(t *testing.T) {
	a := newAPITest(t)

	user := a.createUser("Alice", "alice@example.com")
	assert.NotZero(t, user.ID)

	rec := a.do(http.MethodGet, fmt.Sprintf("/users/%d", user.ID), 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPatch, fmt.Sprintf("/users/%d", user.ID), 0, map[string]string{"name": "Alicia"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.User
	a.decode(rec, &updated)
	assert.Equal(t, "Alicia", updated.Name)
	assert.Equal(t, "alice@example.com", updated.Email)

	rec = a.do(http.MethodDelete, fmt.Sprintf("/users/%d", user.ID), 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, fmt.Sprintf("/users/%d", user.ID), 0, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	a := newAPITest(t)
	a.createUser("Alice", "alice@example.com")

	rec := a.do(http.MethodPost, "/users", 0, map[string]string{"name": "Bob", "email": "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteUser_WithListingsAndBookings(t *testing.T) {
	a := newAPITest(t)
	owner := a.createUser("Owner", "owner@example.com")
	booker := a.createUser("Booker", "booker@example.com")
	item := a.createItem(owner.ID, "Дрель")

	start := time.Now().UTC().Add(24 * time.Hour)
	a.createBooking(booker.ID, item.ID, start, start.Add(24*time.Hour))

	rec := a.do(http.MethodDelete, fmt.Sprintf("/users/%d", owner.ID), 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodDelete, fmt.Sprintf("/users/%d", booker.ID), 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestGetUserItems_UnknownCaller(t *testing.T) {
	a := newAPITest(t)

	rec := a.do(http.MethodGet, "/items", 999, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorBodyShape(t *testing.T) {
	a := newAPITest(t)

	rec := a.do(http.MethodGet, "/users/999", 0, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body errorBody
	a.decode(rec, &body)
	assert.Equal(t, http.StatusNotFound, body.Status)
	assert.Equal(t, "Not Found", body.Error)
	assert.NotEmpty(t, body.Message)
	assert.Equal(t, "/users/999", body.Path)
	_, err := time.Parse(time.RFC3339, body.Timestamp)
	assert.NoError(t, err)
}

func TestIdentityHeaderRequired(t *testing.T) {
	a := newAPITest(t)

	rec := a.do(http.MethodPost, "/items", 0, map[string]any{"name": "Drill", "description": "d", "available": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set(models.HeaderUserID, "abc")
	rec2 := httptest.NewRecorder()
	a.handler.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestItemSearchRoute(t *testing.T) {
	a := newAPITest(t)
	owner := a.createUser("Owner", "owner@example.com")
	a.createItem(owner.ID, "Дрель")
	a.createItem(owner.ID, "Отвертка")

	rec := a.do(http.MethodGet, "/items/search?text=дРеЛь", owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found []models.Item
	a.decode(rec, &found)
	require.Len(t, found, 1)
	assert.Equal(t, "Дрель", found[0].Name)

	// Blank text short-circuits to an empty list.
	rec = a.do(http.MethodGet, "/items/search?text=", owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = a.do(http.MethodGet, "/items/search?text=x&from=-1", owner.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/items/search?text=x&size=0", owner.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingLifecycle(t *testing.T) {
	a := newAPITest(t)
	owner := a.createUser("Owner", "owner@example.com")
	booker := a.createUser("Booker", "booker@example.com")
	other := a.createUser("Other", "other@example.com")
	item := a.createItem(owner.ID, "Дрель")

	start := time.Now().UTC().Add(24 * time.Hour)
	booking := a.createBooking(booker.ID, item.ID, start, start.Add(48*time.Hour))
	assert.Equal(t, models.StatusWaiting, booking.Status)
	assert.Equal(t, item.ID, booking.Item.ID)
	assert.Equal(t, booker.ID, booking.Booker.ID)

	// Approval requires an explicit boolean parameter.
	rec := a.do(http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=yes", booking.ID), owner.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Only the owner may decide.
	rec = a.do(http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=true", booking.ID), booker.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=true", booking.ID), owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var approved models.BookingView
	a.decode(rec, &approved)
	assert.Equal(t, models.StatusApproved, approved.Status)

	// Deciding twice is rejected.
	rec = a.do(http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=false", booking.ID), owner.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Both parties see the booking, strangers get a 404.
	for _, viewer := range []int64{owner.ID, booker.ID} {
		rec = a.do(http.MethodGet, fmt.Sprintf("/bookings/%d", booking.ID), viewer, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec = a.do(http.MethodGet, fmt.Sprintf("/bookings/%d", booking.ID), other.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingListings(t *testing.T) {
	a := newAPITest(t)
	owner := a.createUser("Owner", "owner@example.com")
	booker := a.createUser("Booker", "booker@example.com")
	item := a.createItem(owner.ID, "Дрель")

	start := time.Now().UTC().Add(24 * time.Hour)
	a.createBooking(booker.ID, item.ID, start, start.Add(24*time.Hour))

	rec := a.do(http.MethodGet, "/bookings?state=FUTURE", booker.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []models.BookingView
	a.decode(rec, &views)
	assert.Len(t, views, 1)

	rec = a.do(http.MethodGet, "/bookings/owner?state=WAITING", owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	views = nil
	a.decode(rec, &views)
	assert.Len(t, views, 1)

	// The core service tolerates unknown states and treats them as ALL;
	// strict validation is the gateway's job.
	rec = a.do(http.MethodGet, "/bookings?state=banana", booker.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/bookings/owner", booker.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestCommentFlow(t *testing.T) {
	a := newAPITest(t)
	owner := a.createUser("Owner", "owner@example.com")
	booker := a.createUser("Booker", "booker@example.com")
	item := a.createItem(owner.ID, "Дрель")

	commentPath := fmt.Sprintf("/items/%d/comment", item.ID)

	// No finished booking yet.
	rec := a.do(http.MethodPost, commentPath, booker.ID, map[string]string{"text": "great drill"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	start := time.Now().UTC().Add(-48 * time.Hour)
	booking := a.createBooking(booker.ID, item.ID, start, start.Add(24*time.Hour))
	rec = a.do(http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=true", booking.ID), owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPost, commentPath, booker.ID, map[string]string{"text": "great drill"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var comment models.CommentView
	a.decode(rec, &comment)
	assert.Equal(t, "Booker", comment.AuthorName)

	rec = a.do(http.MethodGet, fmt.Sprintf("/items/%d", item.ID), owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view models.ItemView
	a.decode(rec, &view)
	require.Len(t, view.Comments, 1)
	assert.Equal(t, "great drill", view.Comments[0].Text)
	require.NotNil(t, view.LastBooking)
	assert.Equal(t, booking.ID, view.LastBooking.ID)
}

func TestRequestEndpoints(t *testing.T) {
	a := newAPITest(t)
	requestor := a.createUser("Requestor", "req@example.com")
	owner := a.createUser("Owner", "owner@example.com")

	rec := a.do(http.MethodPost, "/requests", requestor.ID, map[string]string{"description": "need a drill"})
	require.Equal(t, http.StatusOK, rec.Code)
	var request models.ItemRequest
	a.decode(rec, &request)
	assert.NotZero(t, request.ID)

	rec = a.do(http.MethodPost, "/items", owner.ID, map[string]any{
		"name": "Дрель", "description": "drill", "available": true, "requestId": request.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/requests", requestor.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []models.ItemRequestView
	a.decode(rec, &mine)
	require.Len(t, mine, 1)
	require.Len(t, mine[0].Items, 1)
	assert.Equal(t, "Дрель", mine[0].Items[0].Name)

	// Own requests are excluded from the shared feed.
	rec = a.do(http.MethodGet, "/requests/all", requestor.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = a.do(http.MethodGet, "/requests/all", owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed []models.ItemRequestView
	a.decode(rec, &feed)
	assert.Len(t, feed, 1)

	rec = a.do(http.MethodGet, fmt.Sprintf("/requests/%d", request.ID), owner.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBookingValidationOrder(t *testing.T) {
	a := newAPITest(t)
	owner := a.createUser("Owner", "owner@example.com")
	booker := a.createUser("Booker", "booker@example.com")
	item := a.createItem(owner.ID, "Дрель")

	start := time.Now().UTC().Add(24 * time.Hour)

	// Unknown item.
	rec := a.do(http.MethodPost, "/bookings", booker.ID, map[string]any{
		"itemId": int64(999),
		"start":  start.Format("2006-01-02T15:04:05"),
		"end":    start.Add(time.Hour).Format("2006-01-02T15:04:05"),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Owner booking their own item reads as not found.
	rec = a.do(http.MethodPost, "/bookings", owner.ID, map[string]any{
		"itemId": item.ID,
		"start":  start.Format("2006-01-02T15:04:05"),
		"end":    start.Add(time.Hour).Format("2006-01-02T15:04:05"),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Inverted window.
	rec = a.do(http.MethodPost, "/bookings", booker.ID, map[string]any{
		"itemId": item.ID,
		"start":  start.Add(time.Hour).Format("2006-01-02T15:04:05"),
		"end":    start.Format("2006-01-02T15:04:05"),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed date.
	rec = a.do(http.MethodPost, "/bookings", booker.ID, map[string]any{
		"itemId": item.ID, "start": "tomorrow", "end": "later",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
