// Package parse converts the portal's server-rendered tables and panels
// into structured records. Parsers are pure functions of HTML snapshots:
// no navigation, no mutation, no caching. Rows missing their identifying
// field are noise (headers, footers, filler) and are dropped silently;
// malformed numeric cells fall back to zero because bad cell data is a
// portal data-quality issue, not a structural failure.
package parse

import (
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ParseTurkishDate converts the portal's DD.MM.YYYY format to ISO
// (YYYY-MM-DD). Unrecognized input is returned unchanged.
func ParseTurkishDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return s
	}
	day, month, year := parts[0], parts[1], parts[2]
	if len(year) != 4 {
		return s
	}
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	return year + "-" + month + "-" + day
}

// FormatTurkishDate converts an ISO date (or RFC3339 timestamp) to the
// DD.MM.YYYY format the portal's date inputs expect. Input already in
// portal format passes through.
func FormatTurkishDate(s string) string {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("02.01.2006")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format("02.01.2006")
	}
	return s
}

// IntOrZero parses an integer cell, zero on anything unparsable.
func IntOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// AmountOrZero parses a money cell in the Turkish locale ("1.250,50"):
// dots group thousands, the comma is the decimal separator. Zero on
// anything unparsable.
func AmountOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// doc builds a goquery document from an HTML snapshot. The parsers accept
// whatever OuterHTML handed them; an unreadable snapshot parses as empty.
func doc(html string) *goquery.Document {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		d, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}
	return d
}

// cell returns the trimmed text of the nth td in a row, "" when absent.
func cell(row *goquery.Selection, n int) string {
	return strings.TrimSpace(row.Find("td").Eq(n).Text())
}

// dataRows iterates a table's rows, skipping the header row and any row
// with fewer than minCells data cells.
func dataRows(d *goquery.Document, minCells int, fn func(row *goquery.Selection)) {
	d.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		if row.Find("td").Length() < minCells {
			return
		}
		fn(row)
	})
}
