package qr

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/signintech/gopdf"
)

// TableCard is everything printed on one table-tent card.
type TableCard struct {
	RestaurantName string
	Table          string
	MenuURL        string
}

// TableCardGenerator renders printable A4 cards that restaurants place on
// tables. The QR image comes from Generator.MenuCode.
type TableCardGenerator struct {
	fontPath string
}

func NewTableCardGenerator(fontPath string) *TableCardGenerator {
	if fontPath == "" {
		fontPath = "./fonts/DejaVuSans.ttf"
	}
	return &TableCardGenerator{fontPath: fontPath}
}

func (g *TableCardGenerator) Generate(card TableCard, qrCode []byte) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	err := pdf.AddTTFFont("dejavu", g.fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	err = pdf.SetFont("dejavu", "", 22)
	if err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}

	pdf.SetX(40)
	pdf.SetY(40)
	pdf.Cell(nil, card.RestaurantName)

	if err := pdf.SetFont("dejavu", "", 14); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}

	pdf.SetX(40)
	pdf.SetY(80)
	pdf.Cell(nil, "Scan to view our menu and order")

	if card.Table != "" {
		pdf.SetX(40)
		pdf.SetY(105)
		pdf.Cell(nil, "Table "+card.Table)
	}

	if len(qrCode) > 0 {
		if err := drawQRCode(pdf, qrCode); err != nil {
			return nil, err
		}
	}

	pdf.SetX(40)
	pdf.SetY(420)
	pdf.Cell(nil, card.MenuURL)

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func drawQRCode(pdf *gopdf.GoPdf, qrCode []byte) error {
	img, err := png.Decode(bytes.NewReader(qrCode))
	if err != nil {
		return fmt.Errorf("failed to decode QR image: %w", err)
	}

	rect := &gopdf.Rect{W: 240, H: 240}
	if err := pdf.ImageFrom(img, 40, 150, rect); err != nil {
		return fmt.Errorf("failed to draw QR code: %w", err)
	}
	return nil
}
