package crawler

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/d2vlab/yfcrawler/internal/model"
)

// DefaultPriceSelector locates the current underlying price on an option page.
const DefaultPriceSelector = `span[data-reactid="35"]`

// Row and column class prefixes. Rows are numbered from 0; columns 0 to 10
// hold the contract fields in report order.
const (
	rowClassPrefix    = "data-row"
	columnClassPrefix = "data-col"
	columnCount       = 11
)

// Extractor parses archived option pages into OptionRecords.
type Extractor struct {
	// priceSelector locates the underlying price element.
	priceSelector string

	// logger receives one record per failure.
	logger *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithPriceSelector overrides the CSS selector of the underlying price.
func WithPriceSelector(selector string) ExtractorOption {
	return func(e *Extractor) {
		e.priceSelector = selector
	}
}

// WithExtractorLogger sets the logger used for failure reports.
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor with the default page markers.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		priceSelector: DefaultPriceSelector,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Extract reads the archived page at path and returns one record per row of
// the table for side. Every record is prefixed with capturedAt, the
// underlying price, the side label and expiration.
//
// The whole page+side fails if the file is missing, if the price or table is
// absent, or if any row lacks a column. No partial row list is returned.
func (e *Extractor) Extract(path, expiration, capturedAt string, side model.Side) ([]model.OptionRecord, error) {
	records, err := e.extract(path, expiration, capturedAt, side)
	if err != nil {
		var failure *model.Failure
		if errors.As(err, &failure) {
			e.logger.Error("failed extracting option rows",
				"kind", failure.Kind.String(),
				"file", path,
				"side", side.String(),
				"error", err,
			)
		}
		return nil, err
	}
	return records, nil
}

func (e *Extractor) extract(path, expiration, capturedAt string, side model.Side) ([]model.OptionRecord, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the archive phase
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.NewFailure(model.FailureSourceMissing, "extract", path, err)
		}
		return nil, model.NewFailure(model.FailureFilesystem, "extract", path, err)
	}
	defer f.Close()

	root, err := html.Parse(f)
	if err != nil {
		return nil, model.NewFailure(model.FailureExtraction, "extract", path, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	price := doc.Find(e.priceSelector).First()
	if price.Length() == 0 {
		return nil, model.NewFailure(model.FailureStructureNotFound, "extract", path,
			fmt.Errorf("underlying price %s", e.priceSelector))
	}
	underlying := price.Text()

	table := doc.Find("table." + side.TableClass()).First()
	if table.Length() == 0 {
		return nil, model.NewFailure(model.FailureStructureNotFound, "extract", path,
			fmt.Errorf("options table %q", side.TableClass()))
	}

	records := make([]model.OptionRecord, 0)
	for i := 0; ; i++ {
		row := table.Find(fmt.Sprintf("tr.%s%d", rowClassPrefix, i)).First()
		if row.Length() == 0 {
			break
		}

		cols, err := rowColumns(row)
		if err != nil {
			return nil, model.NewFailure(model.FailureExtraction, "extract", path,
				fmt.Errorf("%s row %d: %w", side.TableClass(), i, err))
		}

		records = append(records, model.OptionRecord{
			CapturedAt:        capturedAt,
			UnderlyingPrice:   underlying,
			Side:              side,
			Expiration:        expiration,
			ContractName:      cols[0],
			LastTradeDate:     cols[1],
			Strike:            cols[2],
			LastPrice:         cols[3],
			Bid:               cols[4],
			Ask:               cols[5],
			Change:            cols[6],
			PercentChange:     cols[7],
			Volume:            cols[8],
			OpenInterest:      cols[9],
			ImpliedVolatility: cols[10],
		})
	}

	return records, nil
}

// rowColumns returns the text of columns data-col0 .. data-col10 of a row.
func rowColumns(row *goquery.Selection) ([columnCount]string, error) {
	var cols [columnCount]string
	for c := 0; c < columnCount; c++ {
		class := fmt.Sprintf("%s%d", columnClassPrefix, c)
		cell := row.Find("td." + class).First()
		if cell.Length() == 0 {
			return cols, fmt.Errorf("missing column %s", class)
		}
		cols[c] = cell.Text()
	}
	return cols, nil
}
