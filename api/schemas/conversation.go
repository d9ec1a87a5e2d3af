// File: api/schemas/conversation.go
package schemas

import "encoding/base64"

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Image is an inline image attached to a turn.
type Image struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// DataURI encodes the image as a data: URI, the form chat completion APIs accept
// for inline images.
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Turn is a single message in the transcript. A turn carries text, and user turns
// may additionally carry one image.
type Turn struct {
	Role  Role   `json:"role"`
	Text  string `json:"text"`
	Image *Image `json:"image,omitempty"`
}

// HasImage reports whether the turn carries image content.
func (t Turn) HasImage() bool {
	return t.Image != nil && len(t.Image.Data) > 0
}
