package conversation

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

type AttachmentKind string

const (
	AttachmentKindImage AttachmentKind = "image"
	AttachmentKindText  AttachmentKind = "text"
)

const maxImageSize = 20 * 1024 * 1024

// Attachment is a file the user attached to a single turn. It is folded into
// the outgoing prompt and never stored on its own.
type Attachment struct {
	Kind AttachmentKind `json:"type"`
	Name string         `json:"name"`
	// Data is the data URI of an image attachment.
	Data string `json:"data,omitempty"`
	// Content is the decoded text of a text attachment.
	Content string `json:"content,omitempty"`
}

func (a Attachment) IsImage() bool {
	return a.Kind == AttachmentKindImage
}

func NewImageAttachment(name string, dataURI string) Attachment {
	return Attachment{Kind: AttachmentKindImage, Name: name, Data: dataURI}
}

func NewTextAttachment(name string, content string) Attachment {
	return Attachment{Kind: AttachmentKindText, Name: name, Content: content}
}

// LoadAttachment reads path from fs. Files with an image extension become data
// URIs, everything else is read as text.
func LoadAttachment(fs afero.Fs, path string) (Attachment, error) {
	name := filepath.Base(path)
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return Attachment{}, errors.Wrapf(err, "could not read attachment %s", path)
	}

	mediaType := MediaTypeFromExtension(filepath.Ext(path))
	if mediaType != "" {
		if len(content) > maxImageSize {
			return Attachment{}, errors.Errorf("image %s exceeds 20MB limit", name)
		}
		return NewImageAttachment(name, EncodeDataURI(mediaType, content)), nil
	}

	if !utf8.Valid(content) {
		return Attachment{}, errors.Errorf("attachment %s is neither an image nor UTF-8 text", name)
	}
	return NewTextAttachment(name, string(content)), nil
}

func MediaTypeFromExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return ""
	}
}

func EncodeDataURI(mediaType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))
}

// ParseDataURI splits a base64 data URI into its media type and decoded bytes.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.Errorf("not a data URI: %.32q", uri)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("data URI has no payload")
	}
	mediaType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, errors.Errorf("data URI for %s is not base64 encoded", mediaType)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Wrap(err, "could not decode data URI payload")
	}
	return mediaType, data, nil
}
