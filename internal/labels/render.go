// Package labels renders identifier labels for accepted grid rows and keeps
// a log of print jobs. The print agent that takes the PNG to paper is an
// external collaborator.
package labels

import (
	"fmt"
	"strconv"
	"strings"

	"warehouse_ops_backend/internal/scheduler"

	"github.com/skip2/go-qrcode"
)

const labelSize = 256

// Content is the text encoded into a label's QR code.
func Content(p scheduler.LabelPrintPayload) string {
	parts := []string{p.WSN, p.Kind, strconv.FormatInt(p.WarehouseID, 10)}
	if p.Title != "" {
		parts = append(parts, p.Title)
	}
	return strings.Join(parts, "|")
}

// Render produces the PNG label for p.
func Render(p scheduler.LabelPrintPayload) ([]byte, error) {
	png, err := qrcode.Encode(Content(p), qrcode.Medium, labelSize)
	if err != nil {
		return nil, fmt.Errorf("render label %s: %w", p.WSN, err)
	}
	return png, nil
}
