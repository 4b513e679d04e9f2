// Package hlsget downloads HLS media playlists and assembles their segments
// into a single media file.
//
// hlsget covers the two halves of that job: parsing M3U8 playlist text into
// an ordered segment model, and running a sequential download pipeline that
// fetches every segment, reports progress, and concatenates the results in
// playlist order. Fetching is pluggable through the Fetcher interface, so
// segments can come from plain HTTP, an authenticated session, or a test
// stub.
//
// # Basic Usage
//
//	client := hlsget.New(hlsget.Options{
//	    UserAgent: "my-downloader/1.0",
//	})
//
//	res, err := client.Get(ctx, "https://host/stream/index.m3u8", func(p hlsget.Progress) {
//	    fmt.Printf("%d/%d segments (%d%%)\n", p.SegmentIndex, p.TotalSegments, p.Percentage)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("video.mp4", res.Data, 0644)
//
// # Download Workflow
//
// A download proceeds in fixed stages:
//
//  1. FetchPlaylist retrieves the playlist text and parses it
//  2. Download fetches each segment strictly in playlist order
//  3. Progress is reported once up front and once per completed segment
//  4. Segment bytes are concatenated into a single Result
//
// Master playlists are rejected with ErrMasterPlaylist; pick one of the
// advertised media playlists and download that instead.
//
// # Limitations
//
// Segments are concatenated byte for byte without remuxing. That produces a
// playable file for MPEG-TS segments, which tolerate plain concatenation,
// but the result is tagged video/mp4 regardless of the actual container.
// Fragmented MP4 playlists need a remuxing step that is out of scope here.
package hlsget

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/studyrathour/hlsget/internal/domain"
	"github.com/studyrathour/hlsget/internal/fetch"
	"github.com/studyrathour/hlsget/internal/pipeline"
	"github.com/studyrathour/hlsget/internal/playlist"
)

type (
	// Playlist is the parsed form of an M3U8 media playlist. Segments appear
	// in playback order, which is also the download and concatenation order.
	Playlist = domain.Playlist

	// Segment is a single media chunk referenced by a playlist. Its URI is
	// always absolute after parsing.
	Segment = domain.Segment

	// Progress is a snapshot of a running download, delivered to a
	// ProgressFunc after each completed segment.
	Progress = domain.Progress

	// ProgressFunc receives progress snapshots during Download. Callbacks
	// run synchronously on the downloading goroutine and should return
	// quickly.
	ProgressFunc = domain.ProgressFunc

	// Result is a completed download: the concatenated segment bytes plus a
	// generated identifier and media type tag.
	Result = domain.Result

	// Fetcher retrieves a single resource by URL. Implementations must
	// honor ctx cancellation.
	Fetcher = domain.Fetcher

	// FormatError reports playlist text that cannot be parsed as a media
	// playlist. Use errors.Is against ErrMissingHeader or ErrMasterPlaylist
	// to tell the cases apart.
	FormatError = domain.FormatError

	// SegmentError reports which segment fetch caused a download to fail.
	SegmentError = domain.SegmentError
)

// MediaTypeMP4 is the media type tag applied to every Result.
const MediaTypeMP4 = domain.MediaTypeMP4

var (
	// ErrMissingHeader means the playlist text does not start with #EXTM3U.
	ErrMissingHeader = domain.ErrMissingHeader

	// ErrMasterPlaylist means the text is a master playlist referencing
	// variant streams instead of media segments.
	ErrMasterPlaylist = domain.ErrMasterPlaylist

	// ErrNoSegments means a download was attempted on a playlist without
	// any segments.
	ErrNoSegments = domain.ErrNoSegments

	// ErrCancelled means the download was stopped through its context
	// before completing. It takes precedence over any in-flight fetch
	// failure.
	ErrCancelled = domain.ErrCancelled

	// ErrDownloadInProgress means Download was called while another
	// download on the same Client was still running.
	ErrDownloadInProgress = domain.ErrDownloadInProgress
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Options configures a Client. The zero value is usable; every field has a
// working default.
type Options struct {
	// HTTPClient overrides the HTTP client used for playlist and segment
	// requests. When set, Timeout is ignored. Default: a client with
	// Timeout applied.
	HTTPClient *http.Client

	// UserAgent is sent with every request. Default: a desktop browser
	// user agent, since many streaming hosts reject unknown clients.
	UserAgent string

	// Headers are added to every request, on top of UserAgent. Useful for
	// Referer or cookie-based session headers.
	Headers map[string]string

	// Timeout bounds each individual HTTP request, not the whole download.
	// Default: 30 seconds.
	Timeout time.Duration
}

func (o *Options) setDefaults() {
	if o.Timeout == 0 {
		o.Timeout = defaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
}

// Client downloads HLS playlists and their segments. One Client runs at most
// one download at a time; concurrent Download calls beyond the first return
// ErrDownloadInProgress.
type Client struct {
	fetcher  *fetch.Fetcher
	pipeline *pipeline.Pipeline
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	opts.setDefaults()

	fetcher := fetch.NewFetcher(opts.HTTPClient, opts.UserAgent, opts.Headers)
	return &Client{
		fetcher:  fetcher,
		pipeline: pipeline.NewPipeline(fetcher),
	}
}

// Parse parses M3U8 playlist text into a Playlist. baseURL is the address
// the playlist was retrieved from; relative segment references are resolved
// against it. Parsing is pure: no network access, no partial results.
//
// Master playlists and text without the #EXTM3U header return a FormatError.
// Unknown tags are skipped, so newer playlist features do not break parsing.
func Parse(text string, baseURL string) (*Playlist, error) {
	return playlist.Parse(text, baseURL)
}

// Fetch retrieves a single resource using the client's HTTP configuration.
// It is the same fetch path used for playlists and segments.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	return c.fetcher.Fetch(ctx, url)
}

// FetchPlaylist retrieves and parses the playlist at url. Segment references
// are resolved against url itself.
func (c *Client) FetchPlaylist(ctx context.Context, url string) (*Playlist, error) {
	data, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}
	return playlist.Parse(string(data), url)
}

// Download fetches every segment of pl in order and concatenates the bytes
// into a single Result.
//
// onProgress, when non-nil, is called once before the first fetch and once
// after each completed segment, on the calling goroutine. Cancelling ctx
// stops the download at the next segment boundary, aborts the in-flight
// request, and returns ErrCancelled. A failed segment fetch aborts the
// download with a SegmentError; there are no retries and no partial results.
func (c *Client) Download(ctx context.Context, pl *Playlist, onProgress ProgressFunc) (*Result, error) {
	return c.pipeline.Run(ctx, pl, onProgress)
}

// Get is the one-call form of FetchPlaylist followed by Download.
func (c *Client) Get(ctx context.Context, url string, onProgress ProgressFunc) (*Result, error) {
	pl, err := c.FetchPlaylist(ctx, url)
	if err != nil {
		return nil, err
	}
	return c.Download(ctx, pl, onProgress)
}
