package avito

import (
	"fmt"
	"time"
)

// ErrorResponse covers both envelopes Avito uses:
//
//	{"error": {"code": 404, "message": "..."}}
//	{"error": "invalid_grant", "error_description": "..."}
type ErrorResponse struct {
	Err              any    `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Msg              string `json:"message,omitempty"`
}

// Message flattens whichever envelope was returned.
func (e ErrorResponse) Message() string {
	if e.ErrorDescription != "" {
		return e.ErrorDescription
	}
	switch v := e.Err.(type) {
	case string:
		return v
	case map[string]any:
		if m, ok := v["message"].(string); ok {
			return m
		}
	}
	return e.Msg
}

// Self is the account bound to an access token.
type Self struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
}

// Item is a listing as returned by the core items endpoint.
type Item struct {
	ID         int64  `json:"id"`
	Status     string `json:"status"`
	URL        string `json:"url"`
	StartTime  string `json:"start_time,omitempty"`
	FinishTime string `json:"finish_time,omitempty"`
}

// Date is a calendar day on the wire ("2006-01-02").
type Date struct {
	time.Time
}

const dateLayout = time.DateOnly

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	t, err := time.Parse(dateLayout, s[1:len(s)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Booking is a reservation on a short-term rental listing.
type Booking struct {
	AvitoBookingID int64   `json:"avito_booking_id"`
	BasePrice      float64 `json:"base_price"`
	CheckIn        Date    `json:"check_in"`
	CheckOut       Date    `json:"check_out"`
	Contact        Contact `json:"contact"`
	GuestCount     int     `json:"guest_count"`
	Nights         int     `json:"nights"`
	Status         string  `json:"status"`
}

type BookingsResponse struct {
	Bookings []Booking `json:"bookings"`
}

// BookingInterval blocks [DateStart, DateEnd) on the listing calendar.
type BookingInterval struct {
	DateStart Date   `json:"date_start"`
	DateEnd   Date   `json:"date_end"`
	Type      string `json:"type,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

type CreateBookingRequest struct {
	Bookings []BookingInterval `json:"bookings"`
	Source   string            `json:"source,omitempty"`
}

type CreateBookingResponse struct {
	Result string `json:"result"`
}
