package avito

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	return c
}

func TestGetSelf(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/core/v1/accounts/self", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":42,"name":"Host"}`))
	})

	self, err := c.GetSelf(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(42), self.ID)
	assert.Equal(t, "Host", self.Name)
}

func TestGetItemKeepsTrailingSlash(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/core/v1/accounts/42/items/777/", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":777,"status":"active","url":"https://avito.ru/777"}`))
	})

	item, err := c.GetItem(context.Background(), "tok", 42, 777)
	require.NoError(t, err)
	assert.Equal(t, int64(777), item.ID)
	assert.Equal(t, "active", item.Status)
}

func TestListBookings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/realty/v1/accounts/42/items/777/bookings", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2025-04-01", q.Get("date_start"))
		assert.Equal(t, "2025-04-30", q.Get("date_end"))
		assert.Equal(t, "true", q.Get("with_unpaid"))
		_, _ = w.Write([]byte(`{"bookings":[{"avito_booking_id":9001,"base_price":3500,
			"check_in":"2025-04-10","check_out":"2025-04-12","guest_count":2,"nights":2,"status":"active",
			"contact":{"name":"Ivan","phone":"+79001234567","email":"ivan@example.com"}}]}`))
	})

	from := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
	got, err := c.ListBookings(context.Background(), "tok", 42, 777, from, to)
	require.NoError(t, err)
	require.Len(t, got, 1)

	b := got[0]
	assert.Equal(t, int64(9001), b.AvitoBookingID)
	assert.Equal(t, 3500.0, b.BasePrice)
	assert.Equal(t, time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC), b.CheckIn.Time)
	assert.Equal(t, "Ivan", b.Contact.Name)
	assert.Equal(t, 2, b.GuestCount)
}

func TestCreateBooking(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/core/v1/accounts/42/items/777/bookings", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bookings := body["bookings"].([]any)
		first := bookings[0].(map[string]any)
		assert.Equal(t, "2025-04-10", first["date_start"])
		assert.Equal(t, "2025-04-12", first["date_end"])
		_, _ = w.Write([]byte(`{"result":"success"}`))
	})

	err := c.CreateBooking(context.Background(), "tok", 42, 777, CreateBookingRequest{
		Bookings: []BookingInterval{{
			DateStart: Date{time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)},
			DateEnd:   Date{time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC)},
			Type:      "manual",
		}},
	})
	assert.NoError(t, err)
}

func TestTypedErrors(t *testing.T) {
	cases := []struct {
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{http.StatusUnauthorized, `{"error":{"code":401,"message":"token expired"}}`, func(t *testing.T, err error) {
			var e *UnauthorizedError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, "token expired", e.Message)
		}},
		{http.StatusNotFound, `{"error":{"code":404,"message":"item not found"}}`, func(t *testing.T, err error) {
			var e *NotFoundError
			require.True(t, errors.As(err, &e))
		}},
		{http.StatusConflict, `{"error":"dates busy"}`, func(t *testing.T, err error) {
			var e *ConflictError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, "dates busy", e.Message)
		}},
		{http.StatusTooManyRequests, `slow down`, func(t *testing.T, err error) {
			var e *RateLimitError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, 3*time.Second, e.RetryAfter)
		}},
		{http.StatusInternalServerError, `boom`, func(t *testing.T, err error) {
			var e *APIError
			require.True(t, errors.As(err, &e))
			assert.Equal(t, 500, e.StatusCode)
			assert.Equal(t, "boom", e.Message)
		}},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			calls := 0
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.GetSelf(context.Background(), "tok")
			require.Error(t, err)
			tc.check(t, err)
			assert.Equal(t, 1, calls, "no retries")
		})
	}
}

func TestOAuthExchangeAndRefresh(t *testing.T) {
	var grants []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		grants = append(grants, r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-` + r.PostForm.Get("grant_type") + `","refresh_token":"rt","expires_in":86400,"token_type":"Bearer"}`))
	})

	cfg := NewOAuthConfig("cid", "secret", c.BaseURL.String(), "", "https://app.example.com/api/avito/callback")
	assert.Contains(t, AuthCodeURL(cfg, "state123"), "https://avito.ru/oauth?")

	tok, err := c.Exchange(context.Background(), cfg, "code")
	require.NoError(t, err)
	assert.Equal(t, "at-authorization_code", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.True(t, tok.Expiry.After(time.Now()))

	tok, err = c.Refresh(context.Background(), cfg, "rt")
	require.NoError(t, err)
	assert.Equal(t, "at-refresh_token", tok.AccessToken)

	assert.Equal(t, []string{"authorization_code", "refresh_token"}, grants)
}
