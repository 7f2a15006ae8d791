package avito

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ListBookings returns the listing's bookings overlapping [from, to], unpaid included.
func (c *Client) ListBookings(ctx context.Context, accessToken string, userID, itemID int64, from, to time.Time) ([]Booking, error) {
	q := url.Values{}
	q.Set("date_start", from.Format(dateLayout))
	q.Set("date_end", to.Format(dateLayout))
	q.Set("with_unpaid", "true")

	var out BookingsResponse
	p := fmt.Sprintf("/realty/v1/accounts/%d/items/%d/bookings", userID, itemID)
	if err := c.doRequest(ctx, accessToken, http.MethodGet, p, q, nil, &out); err != nil {
		return nil, err
	}
	return out.Bookings, nil
}

// CreateBooking blocks the given interval on the listing.
func (c *Client) CreateBooking(ctx context.Context, accessToken string, userID, itemID int64, req CreateBookingRequest) error {
	p := fmt.Sprintf("/core/v1/accounts/%d/items/%d/bookings", userID, itemID)
	return c.doRequest(ctx, accessToken, http.MethodPost, p, nil, req, nil)
}
