package media_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videorelay/internal/media"
)

func TestResolveContentType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"clip.mp4", "video/mp4"},
		{"clip.MP4", "video/mp4"},
		{"clip.webm", "video/webm"},
		{"clip.mkv", "video/x-matroska"},
		{"clip.avi", "video/x-msvideo"},
		{"clip.MOV", "video/quicktime"},
		{"clip.wmv", "video/x-ms-wmv"},
		{"clip.flv", "video/x-flv"},
		{"clip.m4v", "video/x-m4v"},
		{"some/dir/clip.Mp4", "video/mp4"},
	}

	for _, tt := range tests {
		got, err := media.ResolveContentType(tt.filename)
		require.NoError(t, err, tt.filename)
		assert.Equal(t, tt.want, got, tt.filename)
	}
}

func TestResolveContentTypeUnsupported(t *testing.T) {
	for _, filename := range []string{"clip.xyz", "clip.txt", "clip", "clip.mp4.exe"} {
		_, err := media.ResolveContentType(filename)
		require.Error(t, err, filename)

		var unsupported *media.UnsupportedFormatError
		require.True(t, errors.As(err, &unsupported), filename)
	}

	_, err := media.ResolveContentType("clip.xyz")
	var unsupported *media.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, ".xyz", unsupported.Ext)
	assert.Contains(t, err.Error(), ".xyz")
}

func TestIsVideoType(t *testing.T) {
	assert.True(t, media.IsVideoType("video/mp4"))
	assert.True(t, media.IsVideoType("video/x-matroska"))
	assert.False(t, media.IsVideoType("application/octet-stream"))
	assert.False(t, media.IsVideoType(""))
}
