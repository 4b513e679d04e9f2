package domain

const MediaTypeMP4 = "video/mp4"

type Result struct {
	ID        string
	MediaType string
	// Data is the byte-for-byte concatenation of the fetched segments, in
	// playlist order. Segments are not remuxed, so the artifact is only
	// playable when they are directly concatenable (MPEG-TS).
	Data []byte
}
