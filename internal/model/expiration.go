package model

import (
	"strconv"
	"time"
)

// ExpirationDateLayout renders the human-readable expiration date.
// Expirations are computed in UTC, so the zone suffix is always "UTC".
const ExpirationDateLayout = "2006-01-02 MST"

// ExpirationDate is one scheduled weekly option expiration.
type ExpirationDate struct {
	// Date is the human-readable date, e.g. "2017-01-06 UTC".
	Date string `json:"date"`

	// Epoch is the Unix timestamp in seconds of UTC midnight on that date.
	// The data site selects an expiration's chain by this value.
	Epoch string `json:"epoch"`

	// Time is UTC midnight of the expiration.
	Time time.Time `json:"time"`
}

// NewExpirationDate builds an ExpirationDate from a UTC midnight instant.
func NewExpirationDate(t time.Time) ExpirationDate {
	t = t.UTC()
	return ExpirationDate{
		Date:  t.Format(ExpirationDateLayout),
		Epoch: strconv.FormatInt(t.Unix(), 10),
		Time:  t,
	}
}
