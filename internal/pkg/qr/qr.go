// Package qr encodes and parses the check-in payload carried by a guest's door QR.
package qr

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

// PayloadType discriminates check-in QR payloads from any other JSON.
const PayloadType = "club25-checkin"

const imageSize = 400

// ErrInvalidPayload is returned for anything that is not a well-formed check-in payload.
var ErrInvalidPayload = errors.New("Invalid QR code format")

// Payload is the JSON object encoded in a check-in QR.
type Payload struct {
	Type             string `json:"type"`
	ConfirmationCode string `json:"confirmationCode"`
	UserID           string `json:"userId"`
	DropID           string `json:"dropId"`
}

// NewPayload builds the payload for a reservation.
func NewPayload(confirmationCode string, userID, dropID uuid.UUID) Payload {
	return Payload{
		Type:             PayloadType,
		ConfirmationCode: confirmationCode,
		UserID:           userID.String(),
		DropID:           dropID.String(),
	}
}

// Encode returns the JSON text of the payload.
func (p Payload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Parse decodes raw scanner text and validates the discriminator and ids.
func Parse(raw string) (Payload, uuid.UUID, uuid.UUID, error) {
	var p Payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &p); err != nil {
		return Payload{}, uuid.Nil, uuid.Nil, ErrInvalidPayload
	}
	if p.Type != PayloadType || p.ConfirmationCode == "" || p.UserID == "" || p.DropID == "" {
		return Payload{}, uuid.Nil, uuid.Nil, ErrInvalidPayload
	}
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return Payload{}, uuid.Nil, uuid.Nil, ErrInvalidPayload
	}
	dropID, err := uuid.Parse(p.DropID)
	if err != nil {
		return Payload{}, uuid.Nil, uuid.Nil, ErrInvalidPayload
	}
	return p, userID, dropID, nil
}

// DataURL renders content as a PNG QR code and returns it as a data: URL.
func DataURL(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, imageSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
