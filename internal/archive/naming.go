// Package archive defines where and under which names crawl artifacts live.
//
// Names embed the capture time in US Eastern time, the exchange's local
// time, so that files sort and group by trading day. Every name is computed
// from a fresh clock read; two fetches in the same run may therefore carry
// different minute suffixes.
package archive

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	// Embedded zone database so America/New_York resolves on hosts without tzdata.
	_ "time/tzdata"
)

// EasternZone is the IANA name of US Eastern time.
const EasternZone = "America/New_York"

// DefaultBaseURL is the data site serving option chain pages.
const DefaultBaseURL = "https://finance.yahoo.com"

// Timestamp layouts in Go reference-time notation.
const (
	// RawPageStampLayout suffixes archived pages, e.g. "2017-01-03-09-45-EST".
	RawPageStampLayout = "2006-01-02-15-04-MST"

	// ReportStampLayout suffixes report files, e.g. "2017-01-03-EST".
	ReportStampLayout = "2006-01-02-MST"

	// CaptureLayout is written into every report row, e.g. "2017-01-03 09:45 EST".
	CaptureLayout = "2006-01-02 15:04 MST"
)

// Namer produces artifact names and capture timestamps.
type Namer struct {
	// location is the zone names are rendered in.
	location *time.Location

	// now is the clock. It is read once per produced name.
	now func() time.Time
}

// NamerOption configures a Namer.
type NamerOption func(*Namer)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) NamerOption {
	return func(n *Namer) {
		n.now = now
	}
}

// NewNamer creates a Namer rendering in US Eastern time.
func NewNamer(opts ...NamerOption) (*Namer, error) {
	loc, err := time.LoadLocation(EasternZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", EasternZone, err)
	}

	n := &Namer{location: loc, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// stamp reads the clock and formats it in the namer's zone.
func (n *Namer) stamp(layout string) string {
	return n.now().In(n.location).Format(layout)
}

// RawPageName returns the archive file name for an option page:
// yf-{symbol}-option-html-{epoch}-{YYYY-MM-DD-HH-MM-TZ}.
func (n *Namer) RawPageName(symbol, epoch string) string {
	return fmt.Sprintf("yf-%s-option-html-%s-%s", symbol, epoch, n.stamp(RawPageStampLayout))
}

// ReportName returns the report file name for an expiration:
// yf-{symbol}-option-report-{epoch}-{YYYY-MM-DD-TZ}.
func (n *Namer) ReportName(symbol, epoch string) string {
	return fmt.Sprintf("yf-%s-option-report-%s-%s", symbol, epoch, n.stamp(ReportStampLayout))
}

// CaptureTimestamp returns the zone-qualified time stamped into report rows.
func (n *Namer) CaptureTimestamp() string {
	return n.stamp(CaptureLayout)
}

// OptionPageURL returns the option chain URL for one expiration:
// {base}/quote/{symbol}/options?p={symbol}&date={epoch}.
func OptionPageURL(baseURL, symbol, epoch string) string {
	base := strings.TrimRight(baseURL, "/")
	sym := url.PathEscape(symbol)
	return base + "/quote/" + sym + "/options?p=" + url.QueryEscape(symbol) + "&date=" + epoch
}
