package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Variant selects the prompt template, OCR profile and result shape.
type Variant string

const (
	VariantResume          Variant = "resume"
	VariantLinkedInProfile Variant = "linkedin-profile"
)

func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantResume:
		return VariantResume, nil
	case VariantLinkedInProfile:
		return VariantLinkedInProfile, nil
	}
	return "", fmt.Errorf("unknown analysis variant %q", s)
}

// Label is the human readable name used in user-facing messages.
func (v Variant) Label() string {
	if v == VariantLinkedInProfile {
		return "LinkedIn profile"
	}
	return "resume"
}

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
)

var allowedMediaTypes = map[Variant][]string{
	VariantResume:          {MediaTypePDF, MediaTypeDOCX, MediaTypeJPEG, MediaTypePNG},
	VariantLinkedInProfile: {MediaTypePDF},
}

// AllowsMediaType reports whether uploads of mediaType are accepted for v.
func (v Variant) AllowsMediaType(mediaType string) bool {
	for _, allowed := range allowedMediaTypes[v] {
		if allowed == mediaType {
			return true
		}
	}
	return false
}

func IsImageMediaType(mediaType string) bool {
	return mediaType == MediaTypeJPEG || mediaType == MediaTypePNG
}

// MediaTypeFromFilename guesses the media type of a local file from its
// extension. Unknown extensions return "".
func MediaTypeFromFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MediaTypePDF
	case ".docx":
		return MediaTypeDOCX
	case ".jpg", ".jpeg":
		return MediaTypeJPEG
	case ".png":
		return MediaTypePNG
	}
	return ""
}

// UploadedArtifact is a document received from a client. Path points at the
// staged copy, which lives only for the duration of one analysis run.
type UploadedArtifact struct {
	Content   []byte
	MediaType string
	Size      int64
	Filename  string
	Path      string
}
