package config

import (
	"strings"
	"time"
)

// Settings holds the values a configuration file may set.
// Zero values leave the corresponding Config field unchanged.
type Settings struct {
	ArchiveDir    string        `yaml:"archiveDir,omitempty"`
	ReportDir     string        `yaml:"reportDir,omitempty"`
	LogDir        string        `yaml:"logDir,omitempty"`
	Expirations   int           `yaml:"expirations,omitempty"`
	BaseURL       string        `yaml:"baseURL,omitempty"`
	UserAgent     string        `yaml:"userAgent,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
	PriceSelector string        `yaml:"priceSelector,omitempty"`
	Proxy         string        `yaml:"proxy,omitempty"`

	// Catalog enables the SQLite catalog when true.
	Catalog bool `yaml:"catalog,omitempty"`

	CatalogDir string `yaml:"catalogDir,omitempty"`
}

// File represents the structure of the .yfcrawler configuration file.
type File struct {
	// Defaults applies to every symbol unless overridden in Symbols.
	Defaults Settings `yaml:"defaults,omitempty"`

	// Symbols maps ticker symbols to symbol-specific settings.
	// Keys are matched case-insensitively.
	Symbols map[string]Settings `yaml:"symbols,omitempty"`
}

// GetSymbolSettings returns the settings for a symbol, merging its
// symbol-specific entry over the defaults.
func (cf *File) GetSymbolSettings(symbol string) Settings {
	result := cf.Defaults

	site, ok := cf.lookup(symbol)
	if !ok {
		return result
	}

	if site.ArchiveDir != "" {
		result.ArchiveDir = site.ArchiveDir
	}
	if site.ReportDir != "" {
		result.ReportDir = site.ReportDir
	}
	if site.LogDir != "" {
		result.LogDir = site.LogDir
	}
	if site.Expirations != 0 {
		result.Expirations = site.Expirations
	}
	if site.BaseURL != "" {
		result.BaseURL = site.BaseURL
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.Timeout != 0 {
		result.Timeout = site.Timeout
	}
	if site.PriceSelector != "" {
		result.PriceSelector = site.PriceSelector
	}
	if site.Proxy != "" {
		result.Proxy = site.Proxy
	}
	if site.Catalog {
		result.Catalog = true
	}
	if site.CatalogDir != "" {
		result.CatalogDir = site.CatalogDir
	}

	return result
}

func (cf *File) lookup(symbol string) (Settings, bool) {
	if s, ok := cf.Symbols[symbol]; ok {
		return s, true
	}
	for key, s := range cf.Symbols {
		if strings.EqualFold(key, symbol) {
			return s, true
		}
	}
	return Settings{}, false
}

// Apply copies the file settings for c.Symbol onto c.
// CLI flags are applied afterwards so they take precedence.
func (c *Config) Apply(cf *File) {
	if cf == nil {
		return
	}
	s := cf.GetSymbolSettings(c.Symbol)

	if s.ArchiveDir != "" {
		c.ArchiveDir = s.ArchiveDir
	}
	if s.ReportDir != "" {
		c.ReportDir = s.ReportDir
	}
	if s.LogDir != "" {
		c.LogDir = s.LogDir
	}
	if s.Expirations != 0 {
		c.Expirations = s.Expirations
	}
	if s.BaseURL != "" {
		c.BaseURL = s.BaseURL
	}
	if s.UserAgent != "" {
		c.UserAgent = s.UserAgent
	}
	if s.Timeout != 0 {
		c.Timeout = s.Timeout
	}
	if s.PriceSelector != "" {
		c.PriceSelector = s.PriceSelector
	}
	if s.Proxy != "" {
		c.Proxy = s.Proxy
	}
	if s.Catalog {
		c.SaveToCatalog = true
	}
	if s.CatalogDir != "" {
		c.CatalogDir = s.CatalogDir
	}
}
