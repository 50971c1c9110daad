package launch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Params
	}{
		{
			name: "bare fragment",
			raw:  "imageUrl=https://host/photo.jpg&imageId=abc123",
			want: Params{ImageURL: "https://host/photo.jpg", ImageID: "abc123", UserID: UnknownUser},
		},
		{
			name: "leading hash",
			raw:  "#imageUrl=https%3A%2F%2Fhost%2Fphoto.jpg&imageId=abc123&userId=42",
			want: Params{ImageURL: "https://host/photo.jpg", ImageID: "abc123", UserID: "42"},
		},
		{
			name: "full launch URL",
			raw:  "https://app.example/index.html?v=3#imageUrl=https%3A%2F%2Fhost%2Fphoto.jpg&imageId=abc123",
			want: Params{ImageURL: "https://host/photo.jpg", ImageID: "abc123", UserID: UnknownUser},
		},
		{
			name: "encoded plus and space survive",
			raw:  "imageUrl=https%3A%2F%2Fhost%2Fa%2Bb%2520c.jpg%3Fsig%3Dx%252By&imageId=abc",
			want: Params{ImageURL: "https://host/a+b%20c.jpg?sig=x%2By", ImageID: "abc", UserID: UnknownUser},
		},
		{
			name: "local path",
			raw:  "imageUrl=/tmp/photo.png&imageId=x",
			want: Params{ImageURL: "/tmp/photo.png", ImageID: "x", UserID: UnknownUser},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw, Strict)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		err  error
	}{
		{"empty", "", ErrMissingImageURL},
		{"missing url", "imageId=abc123", ErrMissingImageURL},
		{"full URL without fragment", "https://app.example/index.html", ErrMissingImageURL},
		{"missing id", "imageUrl=https://host/photo.jpg", ErrMissingImageID},
		{"bad scheme", "imageUrl=ftp://host/photo.jpg&imageId=a", ErrInvalidImageURL},
		{"no host", "imageUrl=https:///photo.jpg&imageId=a", ErrInvalidImageURL},
		{"double encoded in strict mode", "imageUrl=https%253A%252F%252Fhost%252Fphoto.jpg&imageId=a", ErrInvalidImageURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw, Strict)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParseLenient(t *testing.T) {
	p, err := Parse("imageUrl=https://host/photo.jpg", Lenient)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.ImageID, "unknown_"), p.ImageID)
	assert.Equal(t, UnknownUser, p.UserID)

	// imageUrl stays mandatory.
	_, err = Parse("imageId=abc", Lenient)
	require.ErrorIs(t, err, ErrMissingImageURL)
}

func TestParseLenientDecodesNestedURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"double encoded", "imageUrl=https%253A%252F%252Fhost%252Fphoto.jpg", "https://host/photo.jpg"},
		{"plus kept", "imageUrl=https%253A%252F%252Fhost%252Fa%252Bb.jpg", "https://host/a+b.jpg"},
		{"encoded space inside", "imageUrl=http%253A%252F%252Fhost%252Fa%252520b.jpg", "http://host/a%20b.jpg"},
		{"single encoded untouched", "imageUrl=https%3A%2F%2Fhost%2Fa%2Bb%2520c.jpg%3Fsig%3Dx%252By", "https://host/a+b%20c.jpg?sig=x%2By"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.raw+"&imageId=x", Lenient)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.ImageURL)
		})
	}
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, Lenient, ParseMode(" Lenient "))
	assert.Equal(t, Strict, ParseMode("strict"))
	assert.Equal(t, Strict, ParseMode("whatever"))
	assert.Equal(t, "lenient", Lenient.String())
}
