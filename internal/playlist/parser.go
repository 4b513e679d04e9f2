package playlist

import (
	"strconv"
	"strings"

	"github.com/studyrathour/hlsget/internal/domain"
)

const (
	tagHeader         = "#EXTM3U"
	tagVersion        = "#EXT-X-VERSION:"
	tagTargetDuration = "#EXT-X-TARGETDURATION:"
	tagMediaSequence  = "#EXT-X-MEDIA-SEQUENCE:"
	tagSegmentInfo    = "#EXTINF:"
	tagStreamInfo     = "#EXT-X-STREAM-INF:"
)

// Parse turns raw playlist text into an ordered segment model. baseURL is
// the address the playlist itself was retrieved from; relative segment
// references are resolved against it. Master playlists are rejected, the
// caller must pick one of their media playlists instead.
func Parse(text string, baseURL string) (*domain.Playlist, error) {
	lines := splitLines(text)
	if len(lines) == 0 || !strings.HasPrefix(lines[0], tagHeader) {
		return nil, &domain.FormatError{Reason: domain.ErrMissingHeader}
	}

	pl := &domain.Playlist{Version: 1}

	var pendingDuration float64
	var pendingTitle string

	for _, line := range lines[1:] {
		switch {
		case strings.HasPrefix(line, tagVersion):
			if v, err := strconv.Atoi(strings.TrimPrefix(line, tagVersion)); err == nil {
				pl.Version = v
			}
		case strings.HasPrefix(line, tagTargetDuration):
			if d, err := strconv.ParseFloat(strings.TrimPrefix(line, tagTargetDuration), 64); err == nil {
				pl.TargetDuration = d
			}
		case strings.HasPrefix(line, tagMediaSequence):
			if n, err := strconv.Atoi(strings.TrimPrefix(line, tagMediaSequence)); err == nil {
				pl.MediaSequence = n
			}
		case strings.HasPrefix(line, tagSegmentInfo):
			if d, title, ok := parseSegmentInfo(strings.TrimPrefix(line, tagSegmentInfo)); ok {
				pendingDuration = d
				pendingTitle = title
			}
		case strings.HasPrefix(line, tagStreamInfo):
			return nil, &domain.FormatError{Reason: domain.ErrMasterPlaylist}
		case strings.HasPrefix(line, "#"):
			// Tags without segment semantics are skipped.
		default:
			seg := domain.Segment{
				Duration: pendingDuration,
				URI:      resolveURI(baseURL, line),
				Title:    pendingTitle,
			}
			if seg.Title == "" {
				seg.Title = "Segment " + strconv.Itoa(len(pl.Segments)+1)
			}
			pl.Segments = append(pl.Segments, seg)
			pl.TotalDuration += pendingDuration
			pendingDuration = 0
			pendingTitle = ""
		}
	}

	return pl, nil
}

// parseSegmentInfo splits an EXTINF payload of the form
// "<duration>[,<title>]". A payload whose duration does not parse is
// reported as not ok and leaves the current segment state untouched.
func parseSegmentInfo(payload string) (float64, string, bool) {
	durationPart, title, _ := strings.Cut(payload, ",")
	d, err := strconv.ParseFloat(strings.TrimSpace(durationPart), 64)
	if err != nil {
		return 0, "", false
	}
	return d, strings.TrimSpace(title), true
}

// resolveURI resolves a segment reference against the playlist address.
// Absolute HTTP(S) references pass through verbatim; anything else is
// appended to the base address truncated after its last path separator.
// Dot-segment and protocol-relative references are not supported.
func resolveURI(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return base[:strings.LastIndex(base, "/")+1] + ref
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
