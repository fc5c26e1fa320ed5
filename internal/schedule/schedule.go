// Package schedule computes the weekly option expirations to crawl.
//
// Weekly options expire on Fridays. The data site addresses each expiration's
// option chain by the Unix timestamp of UTC midnight on that Friday, so the
// schedule is computed entirely in UTC.
package schedule

import (
	"time"

	"github.com/d2vlab/yfcrawler/internal/model"
)

// DefaultCount is the number of expirations crawled per run.
const DefaultCount = 8

// mondayBasedWeekday returns the day of week with Monday=0 ... Sunday=6.
func mondayBasedWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// NextFriday returns the Friday distance weeks after the first Friday on or
// after d. On Saturday and Sunday the Friday of the following week is used.
// A Friday d is returned unchanged for distance 0.
func NextFriday(d time.Time, distance int) time.Time {
	weekday := mondayBasedWeekday(d)

	var offset int
	if weekday > 4 {
		offset = 5 + 6 - weekday
	} else {
		offset = 4 - weekday
	}

	return d.AddDate(0, 0, offset+distance*7)
}

// midnightUTC truncates t to midnight of its UTC calendar day.
func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Build returns count expirations starting from the UTC date of now,
// ordered by distance and spaced exactly seven days apart.
func Build(now time.Time, count int) []model.ExpirationDate {
	if count <= 0 {
		return []model.ExpirationDate{}
	}

	today := midnightUTC(now)
	dates := make([]model.ExpirationDate, 0, count)
	for k := 0; k < count; k++ {
		dates = append(dates, model.NewExpirationDate(NextFriday(today, k)))
	}
	return dates
}
