// Package config provides configuration structures and utilities for yfcrawler.
// It defines where pages and reports are written, which expirations are
// crawled, and how the option pages are requested.
package config
