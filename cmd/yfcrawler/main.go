// Package main provides the entry point for the yfcrawler CLI.
//
// yfcrawler archives the option chain pages of a ticker symbol for the next
// weekly expirations and extracts every call and put contract into
// pipe-delimited report files.
//
// Usage:
//
//	yfcrawler AAPL
//	yfcrawler history AAPL
//
// See --help for all available options.
package main

// main is the entry point for yfcrawler.
func main() {
	Execute()
}
