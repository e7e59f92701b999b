package gravatar

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
)

const baseURL = "https://www.gravatar.com/avatar/"

// Options mirror the gravatar query parameters we care about.
type Options struct {
	Size    int    // s
	Rating  string // r
	Default string // d
}

var defaults = Options{
	Size:    200,
	Rating:  "pg",
	Default: "mm",
}

// URL derives a deterministic avatar URL for an email address. The address is
// trimmed and lowercased before hashing, per the gravatar spec.
func URL(email string) string {
	return URLWithOptions(email, defaults)
}

func URLWithOptions(email string, opts Options) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))

	q := url.Values{}

	if opts.Size > 0 {
		q.Set("s", strconv.Itoa(opts.Size))
	}
	if opts.Rating != "" {
		q.Set("r", opts.Rating)
	}
	if opts.Default != "" {
		q.Set("d", opts.Default)
	}

	u := baseURL + hex.EncodeToString(sum[:])

	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}

	return u
}
