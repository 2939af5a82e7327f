package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapExtToFormat(t *testing.T) {
	assert.Equal(t, PDF, MapExtToFormat(".PDF"))
	assert.Equal(t, IMAGE, MapExtToFormat("jpeg"))
	assert.Equal(t, IMAGE, MapExtToFormat(".png"))
	assert.Equal(t, "", MapExtToFormat(".tiff"))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		head []byte
		want string
	}{
		{"pdf magic", ".pdf", []byte("%PDF-1.7"), PDF},
		{"png disguised as pdf", ".pdf", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, IMAGE},
		{"pdf disguised as jpg", ".jpg", []byte("%PDF-1.4"), PDF},
		{"jpeg magic", "", []byte{0xFF, 0xD8, 0xFF, 0xE1}, IMAGE},
		{"unknown bytes fall back to extension", ".jpg", []byte("GIF89a"), IMAGE},
		{"empty file", ".pdf", nil, PDF},
		{"nothing known", ".txt", []byte("hello"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.ext, tt.head))
		})
	}
}
