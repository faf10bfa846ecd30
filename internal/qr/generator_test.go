package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuURL_PlainSlug(t *testing.T) {
	g := NewGenerator("http://menus.example.com/", 0)
	assert.Equal(t, "http://menus.example.com/m/taverna", g.MenuURL("taverna", CodeOptions{}))
}

func TestMenuURL_TableAndMenuParams(t *testing.T) {
	g := NewGenerator("http://menus.example.com", 0)

	assert.Equal(t,
		"http://menus.example.com/m/taverna?table=12",
		g.MenuURL("taverna", CodeOptions{Table: "12"}))

	assert.Equal(t,
		"http://menus.example.com/m/taverna?menu=menu-1&table=12",
		g.MenuURL("taverna", CodeOptions{Table: "12", MenuID: "menu-1"}))
}

func TestMenuCode_ProducesDecodablePNG(t *testing.T) {
	g := NewGenerator("http://menus.example.com", 0)

	data, err := g.MenuCode("taverna", CodeOptions{Size: 256})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestMenuCode_ClampsSize(t *testing.T) {
	g := NewGenerator("http://menus.example.com", 0)

	data, err := g.MenuCode("taverna", CodeOptions{Size: 16})
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx(), "Tiny requests are raised to the minimum")

	data, err = g.MenuCode("taverna", CodeOptions{Size: 50000})
	require.NoError(t, err)
	img, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1024, img.Bounds().Dx(), "Oversized requests are clamped")
}

func TestMenuCode_RequiresSlug(t *testing.T) {
	g := NewGenerator("http://menus.example.com", 0)
	_, err := g.MenuCode("", CodeOptions{})
	assert.Error(t, err)
}
