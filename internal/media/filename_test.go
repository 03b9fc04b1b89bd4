package media_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videorelay/internal/media"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func TestFormatStoredName(t *testing.T) {
	got, err := media.FormatStoredName("Jane D.O.E!", "orig.MOV", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "Jane_DOE_2024-01-02_03-04-05.MOV", got)
}

func TestFormatStoredNameDeterministic(t *testing.T) {
	first, err := media.FormatStoredName("Alice Smith", "video.mp4", fixedNow)
	require.NoError(t, err)
	second, err := media.FormatStoredName("Alice Smith", "video.mp4", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "Alice_Smith_2024-01-02_03-04-05.mp4", first)
}

func TestFormatStoredNameNoExtension(t *testing.T) {
	got, err := media.FormatStoredName("Bob", "raw-capture", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "Bob_2024-01-02_03-04-05", got)
}

func TestFormatStoredNameMissingPersonName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n", "!!!...??"} {
		_, err := media.FormatStoredName(name, "orig.mp4", fixedNow)
		assert.ErrorIs(t, err, media.ErrMissingPersonName, "%q", name)
	}
}

func TestSanitizePersonName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice Smith", "Alice_Smith"},
		{"  Alice   Smith  ", "Alice_Smith"},
		{"Jane D.O.E!", "Jane_DOE"},
		{"O'Brien, Pat", "OBrien_Pat"},
		{"x", "x"},
		{"agent 007", "agent_007"},
	}
	for _, tt := range tests {
		got, err := media.SanitizePersonName(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPersonNameFromCapture(t *testing.T) {
	name, ok := media.PersonNameFromCapture("CAM1_Alice_2024-01-02_1704164645.mp4")
	require.True(t, ok)
	assert.Equal(t, "Alice", name)

	// Underscores inside the name belong to the name.
	name, ok = media.PersonNameFromCapture("Cam_Alice_Smith_2024-01-02_1704164645.mov")
	require.True(t, ok)
	assert.Equal(t, "Alice_Smith", name)

	for _, filename := range []string{
		"video.mp4",
		"Alice_2024-01-02.mp4",
		"CAM1_Alice_20240102_1704164645.mp4",
		"",
	} {
		_, ok := media.PersonNameFromCapture(filename)
		assert.False(t, ok, filename)
	}
}
