package model

import "strings"

// RecordFieldCount is the number of fields in every report row.
const RecordFieldCount = 15

// FieldSeparator joins OptionRecord fields in report files.
const FieldSeparator = "|"

// Side is the option contract type.
type Side int

const (
	// Call is a call option.
	Call Side = iota

	// Put is a put option.
	Put
)

// String returns the label written into report rows.
func (s Side) String() string {
	if s == Put {
		return "Put"
	}
	return "Call"
}

// TableClass returns the class of the options table for this side.
func (s Side) TableClass() string {
	if s == Put {
		return "puts"
	}
	return "calls"
}

// OptionRecord is one option contract row. All values are carried as the
// text found on the page; nothing is parsed into numbers.
type OptionRecord struct {
	CapturedAt        string
	UnderlyingPrice   string
	Side              Side
	Expiration        string
	ContractName      string
	LastTradeDate     string
	Strike            string
	LastPrice         string
	Bid               string
	Ask               string
	Change            string
	PercentChange     string
	Volume            string
	OpenInterest      string
	ImpliedVolatility string
}

// ColumnNames lists report columns in row order.
var ColumnNames = [RecordFieldCount]string{
	"TimeStamp", "CurrentStockPrice", "ContractType", "ContractExpiration",
	"ContractName", "LastTradeDate", "Strike", "LastPrice", "Bid", "Ask",
	"Change", "PercentChange", "Volume", "OpenInterest", "ImpliedVolatility",
}

// Fields returns the record values in report order.
func (r OptionRecord) Fields() [RecordFieldCount]string {
	return [RecordFieldCount]string{
		r.CapturedAt,
		r.UnderlyingPrice,
		r.Side.String(),
		r.Expiration,
		r.ContractName,
		r.LastTradeDate,
		r.Strike,
		r.LastPrice,
		r.Bid,
		r.Ask,
		r.Change,
		r.PercentChange,
		r.Volume,
		r.OpenInterest,
		r.ImpliedVolatility,
	}
}

// String serializes the record as one pipe-delimited report line without
// the trailing newline. Field text is not escaped.
func (r OptionRecord) String() string {
	fields := r.Fields()
	return strings.Join(fields[:], FieldSeparator)
}

// SerializeRecords converts records to report lines, preserving order.
func SerializeRecords(records []OptionRecord) []string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.String()
	}
	return lines
}
