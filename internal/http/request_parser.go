package http

// Utilities for reading query parameters and request bodies.

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finvue/internal/analytics"
	"finvue/internal/core"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// ParseSelection reads month, year and q. Month is zero-based and defaults
// to the month of now; out-of-range or malformed values fall back to it.
// Year is optional (0 means any year). q is passed through untrimmed.
func ParseSelection(query url.Values, now time.Time) analytics.Selection {
	sel := analytics.Selection{
		Month: int(now.Month()) - 1,
		Query: query.Get("q"),
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 0 && m <= 11 {
			sel.Month = m
		}
	}
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			sel.Year = y
		}
	}
	return sel
}

// ParseTrendOptions reads collapse_years as a boolean; anything else is false.
func ParseTrendOptions(query url.Values) analytics.TrendOptions {
	collapse, _ := strconv.ParseBool(strings.TrimSpace(query.Get("collapse_years")))
	return analytics.TrendOptions{CollapseYears: collapse}
}

// RequestBodyParser reads a JSON object or a form-encoded body once.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]interface{}
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body. Bodies starting with '{' are JSON, anything else
// is treated as form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		p.jsonData = make(map[string]interface{})
		p.err = json.Unmarshal([]byte(trimmed), &p.jsonData)
		return p.err
	}
	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns the value for key with control characters removed.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// TransactionInput maps the body onto the ledger's input form.
func (p *RequestBodyParser) TransactionInput() core.TransactionInput {
	return core.TransactionInput{
		Date:        p.Get("date"),
		Amount:      p.Get("amount"),
		Type:        p.Get("type"),
		Category:    p.Get("category"),
		Description: p.Get("description"),
	}
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
