package qr

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	defaultSize = 256
	minSize     = 128
	maxSize     = 1024
)

// Generator renders QR codes that point at a restaurant's public menu page.
type Generator struct {
	baseURL     string
	defaultSize int
}

func NewGenerator(baseURL string, size int) *Generator {
	if size <= 0 {
		size = defaultSize
	}
	return &Generator{
		baseURL:     strings.TrimRight(baseURL, "/"),
		defaultSize: size,
	}
}

// CodeOptions narrows the generated link to a table and/or a single menu.
type CodeOptions struct {
	Table  string
	MenuID string
	Size   int
}

// MenuURL builds the public menu link a customer lands on after scanning.
func (g *Generator) MenuURL(slug string, opts CodeOptions) string {
	u := fmt.Sprintf("%s/m/%s", g.baseURL, url.PathEscape(slug))

	q := url.Values{}
	if opts.Table != "" {
		q.Set("table", opts.Table)
	}
	if opts.MenuID != "" {
		q.Set("menu", opts.MenuID)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// MenuCode renders the menu link as a PNG. Size is clamped so a dashboard
// cannot request absurd images.
func (g *Generator) MenuCode(slug string, opts CodeOptions) ([]byte, error) {
	if slug == "" {
		return nil, fmt.Errorf("qr: slug is required")
	}

	size := opts.Size
	if size <= 0 {
		size = g.defaultSize
	}
	if size < minSize {
		size = minSize
	}
	if size > maxSize {
		size = maxSize
	}

	return qrcode.Encode(g.MenuURL(slug, opts), qrcode.Medium, size)
}
