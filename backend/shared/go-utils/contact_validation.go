package utils

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	twilio "github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	lookupsv2 "github.com/twilio/twilio-go/rest/lookups/v2"
)

// -----------------------------------------------------------------------
// PHONE NUMBERS
// -----------------------------------------------------------------------

var e164Regex = regexp.MustCompile(`^\+[1-9]\d{7,14}$`) // ITU-T E.164

var phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// IsE164 reports basic E.164 compliance.
func IsE164(number string) bool { return e164Regex.MatchString(number) }

// NormalizePhone strips formatting and rewrites the common local
// spellings of Russian numbers ("8 999 ...", "7999...") into "+7...".
// The result is not guaranteed to be valid; check it with IsE164.
func NormalizePhone(raw string) string {
	p := phoneNoise.Replace(strings.TrimSpace(raw))
	if p == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(p, "+"):
		return p
	case len(p) == 11 && p[0] == '8':
		return "+7" + p[1:]
	case len(p) == 11 && p[0] == '7':
		return "+" + p
	case len(p) == 10 && p[0] == '9':
		return "+7" + p
	}
	return "+" + p
}

// ValidatePhoneNumber validates an already-normalized number.
//
//   - If validateWithTwilio is set and a Twilio client is given, a Lookups V2
//     fetch decides.
//   - Otherwise only the E.164 shape is checked.
func ValidatePhoneNumber(
	ctx context.Context,
	number string,
	validateWithTwilio bool,
	tw *twilio.RestClient,
) (bool, error) {
	if !IsE164(number) {
		return false, nil
	}

	if validateWithTwilio && tw != nil {
		_, err := tw.LookupsV2.FetchPhoneNumber(number, &lookupsv2.FetchPhoneNumberParams{})
		if err == nil {
			return true, nil
		}
		if restErr, ok := err.(*twilioclient.TwilioRestError); ok {
			if restErr.Status == 404 {
				return false, nil
			}
			return false, fmt.Errorf("%w: twilio lookup failed: %d %s",
				ErrExternalServiceFailure, restErr.Status, restErr.Error())
		}
		return false, err
	}

	return true, nil
}

// -----------------------------------------------------------------------
// EMAIL
// -----------------------------------------------------------------------

// NormalizeEmail lower-cases and trims an address for storage and lookup.
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// IsValidEmail does syntax only (no DNS). Display-name forms are rejected.
func IsValidEmail(e string) bool {
	addr, err := mail.ParseAddress(e)
	return err == nil && addr.Address == e
}
