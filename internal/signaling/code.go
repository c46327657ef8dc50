package signaling

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidCode is returned for input that cannot be a room code.
var ErrInvalidCode = errors.New("room code must be 6 digits")

var codePattern = regexp.MustCompile(`^[1-9]\d{5}$`)

// ParseCode accepts a bare room code or a share link ending in /r/<code>
// and returns the code.
func ParseCode(input string) (string, error) {
	input = strings.TrimSpace(input)

	if u, err := url.Parse(input); err == nil && u.Host != "" {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) >= 2 && parts[len(parts)-2] == "r" {
			input = parts[len(parts)-1]
		}
	}

	if !codePattern.MatchString(input) {
		return "", ErrInvalidCode
	}
	return input, nil
}
