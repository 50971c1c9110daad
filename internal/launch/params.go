// Package launch reads the session parameters the host passes in the
// launch URL fragment.
package launch

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Fragment keys understood by Parse.
const (
	KeyImageURL = "imageUrl"
	KeyImageID  = "imageId"
	KeyUserID   = "userId"
)

// UnknownUser is substituted for a missing userId.
const UnknownUser = "unknown"

var (
	ErrMissingImageURL = errors.New("image URL not provided")
	ErrMissingImageID  = errors.New("session id not provided")
	ErrInvalidImageURL = errors.New("invalid image URL")
)

// Mode controls how missing optional parameters are treated.
type Mode int

const (
	// Strict requires both imageUrl and imageId.
	Strict Mode = iota
	// Lenient generates a placeholder imageId with a warning and accepts a
	// doubly-encoded imageUrl.
	Lenient
)

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return "unknown"
	}
}

// ParseMode maps a config string onto a Mode. Unknown values are strict.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "lenient") {
		return Lenient
	}
	return Strict
}

// Params are the immutable launch parameters of one editing session.
type Params struct {
	ImageURL string
	ImageID  string
	UserID   string
}

// Parse extracts Params from raw, which may be a bare fragment
// ("imageUrl=...&imageId=..."), a fragment with its leading '#', or a full
// URL carrying the parameters in its fragment.
func Parse(raw string, mode Mode) (Params, error) {
	values, err := url.ParseQuery(fragmentOf(raw))
	if err != nil {
		return Params{}, fmt.Errorf("failed to parse launch fragment: %w", err)
	}

	p := Params{
		ImageURL: strings.TrimSpace(values.Get(KeyImageURL)),
		ImageID:  strings.TrimSpace(values.Get(KeyImageID)),
		UserID:   strings.TrimSpace(values.Get(KeyUserID)),
	}

	if p.ImageURL == "" {
		return Params{}, ErrMissingImageURL
	}
	if mode == Lenient {
		p.ImageURL = decodeNested(p.ImageURL)
	}
	if err := validateImageURL(p.ImageURL); err != nil {
		return Params{}, err
	}

	if p.ImageID == "" {
		if mode == Strict {
			return Params{}, ErrMissingImageID
		}
		p.ImageID = "unknown_" + uuid.NewString()
		slog.Warn("launch: imageId missing, using placeholder", "imageId", p.ImageID)
	}
	if p.UserID == "" {
		p.UserID = UnknownUser
	}
	return p, nil
}

// fragmentOf returns the query-encoded part of raw.
func fragmentOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[i+1:]
	}
	if hasScheme(raw) {
		// A full URL without a fragment carries no parameters.
		return ""
	}
	return raw
}

// hasScheme reports whether s starts with "scheme://".
func hasScheme(s string) bool {
	i := strings.Index(s, "://")
	if i <= 0 {
		return false
	}
	for j, r := range s[:i] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case j > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// decodeNested undoes the extra level of percent-encoding some hosts
// apply to the whole image URL before embedding it in the fragment. Only a
// value whose scheme is still encoded is touched, and '+' is kept.
func decodeNested(s string) string {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http%3a") && !strings.HasPrefix(lower, "https%3a") {
		return s
	}
	if d, err := url.PathUnescape(s); err == nil {
		return d
	}
	return s
}

func validateImageURL(s string) error {
	if filepath.IsAbs(s) {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImageURL, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("%w: %q has no host", ErrInvalidImageURL, s)
		}
		return nil
	case "file", "data":
		return nil
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidImageURL, u.Scheme)
	}
}
