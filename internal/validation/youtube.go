package validation

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidVideoURL = errors.New("url is not a youtube video link")

// youtubeURL accepts watch?v= and youtu.be links; group 1 is the video id.
var youtubeURL = regexp.MustCompile(`^https?://(?:www\.)?(?:youtube\.com/watch\?v=|youtu\.be/)([A-Za-z0-9_-]{11})\S*$`)

// ExtractVideoID returns the 11 character video id of a YouTube link.
func ExtractVideoID(url string) (string, error) {
	m := youtubeURL.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return "", ErrInvalidVideoURL
	}
	return m[1], nil
}
