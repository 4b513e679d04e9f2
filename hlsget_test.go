package hlsget

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const mediaPlaylist = "#EXTM3U\n" +
	"#EXT-X-VERSION:3\n" +
	"#EXT-X-TARGETDURATION:10\n" +
	"#EXTINF:9.5,\n" +
	"seg1.ts\n" +
	"#EXTINF:9.5,\n" +
	"seg2.ts\n" +
	"#EXT-X-ENDLIST\n"

func newStreamServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/stream/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mediaPlaylist))
	})
	mux.HandleFunc("/stream/seg1.ts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0x01, 0x02})
	})
	mux.HandleFunc("/stream/seg2.ts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0x03})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetDownloadsStreamEndToEnd(t *testing.T) {
	srv := newStreamServer(t)
	client := New(Options{HTTPClient: srv.Client()})

	var events []Progress
	res, err := client.Get(context.Background(), srv.URL+"/stream/index.m3u8", func(p Progress) {
		events = append(events, p)
	})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if !bytes.Equal(res.Data, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("unexpected assembled data: %v", res.Data)
	}
	if res.ID == "" {
		t.Error("expected result id to be set")
	}
	if res.MediaType != MediaTypeMP4 {
		t.Errorf("unexpected media type: %s", res.MediaType)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 progress events, got %d", len(events))
	}
	wantPercent := []int{0, 50, 100}
	for i, ev := range events {
		if ev.Percentage != wantPercent[i] {
			t.Errorf("event %d: expected %d%%, got %d%%", i, wantPercent[i], ev.Percentage)
		}
	}
	if events[2].DownloadedBytes != 3 {
		t.Errorf("expected 3 downloaded bytes, got %d", events[2].DownloadedBytes)
	}
}

func TestFetchPlaylistResolvesAgainstPlaylistAddress(t *testing.T) {
	srv := newStreamServer(t)
	client := New(Options{HTTPClient: srv.Client()})

	pl, err := client.FetchPlaylist(context.Background(), srv.URL+"/stream/index.m3u8")
	if err != nil {
		t.Fatalf("fetch playlist failed: %v", err)
	}
	if len(pl.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(pl.Segments))
	}
	if pl.Segments[0].URI != srv.URL+"/stream/seg1.ts" {
		t.Errorf("unexpected resolved uri: %s", pl.Segments[0].URI)
	}
}

func TestGetRejectsMasterPlaylist(t *testing.T) {
	master := "#EXTM3U\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=1280000,RESOLUTION=1280x720\n" +
		"720p/index.m3u8\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(master))
	}))
	defer srv.Close()

	client := New(Options{HTTPClient: srv.Client()})
	_, err := client.Get(context.Background(), srv.URL+"/master.m3u8", nil)
	if !errors.Is(err, ErrMasterPlaylist) {
		t.Fatalf("expected master playlist error, got %v", err)
	}

	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected format error, got %T", err)
	}
}

func TestGetFailsOnEmptyPlaylist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\n#EXT-X-VERSION:3\n"))
	}))
	defer srv.Close()

	client := New(Options{HTTPClient: srv.Client()})
	_, err := client.Get(context.Background(), srv.URL+"/empty.m3u8", nil)
	if !errors.Is(err, ErrNoSegments) {
		t.Fatalf("expected no segments error, got %v", err)
	}
}

func TestDownloadReportsFailingSegment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\n#EXTINF:4,\nseg1.ts\n#EXTINF:4,\nseg2.ts\n"))
	})
	mux.HandleFunc("/seg1.ts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0x01})
	})
	mux.HandleFunc("/seg2.ts", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(Options{HTTPClient: srv.Client()})
	res, err := client.Get(context.Background(), srv.URL+"/index.m3u8", nil)
	if res != nil {
		t.Fatal("expected no result when a segment fails")
	}

	var segErr *SegmentError
	if !errors.As(err, &segErr) {
		t.Fatalf("expected segment error, got %v", err)
	}
	if segErr.Index != 2 {
		t.Errorf("expected failing index 2, got %d", segErr.Index)
	}
	if segErr.URI != srv.URL+"/seg2.ts" {
		t.Errorf("unexpected failing uri: %s", segErr.URI)
	}
}

func TestDownloadCancelledFromProgressCallback(t *testing.T) {
	srv := newStreamServer(t)
	client := New(Options{HTTPClient: srv.Client()})

	pl, err := client.FetchPlaylist(context.Background(), srv.URL+"/stream/index.m3u8")
	if err != nil {
		t.Fatalf("fetch playlist failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := client.Download(ctx, pl, func(p Progress) {
		if p.SegmentIndex == 1 {
			cancel()
		}
	})
	if res != nil {
		t.Fatal("expected no result after cancellation")
	}
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected cancelled error, got %v", err)
	}
}

func TestRequestsCarryConfiguredHeaders(t *testing.T) {
	var gotUA, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte("#EXTM3U\n"))
	}))
	defer srv.Close()

	client := New(Options{
		HTTPClient: srv.Client(),
		UserAgent:  "hlsget-test/1.0",
		Headers:    map[string]string{"Referer": "https://player.example.com/"},
	})
	if _, err := client.FetchPlaylist(context.Background(), srv.URL+"/index.m3u8"); err != nil {
		t.Fatalf("fetch playlist failed: %v", err)
	}
	if gotUA != "hlsget-test/1.0" {
		t.Errorf("expected configured user agent, got %q", gotUA)
	}
	if gotReferer != "https://player.example.com/" {
		t.Errorf("expected referer header, got %q", gotReferer)
	}
}

func TestParseResolvesRelativeReferences(t *testing.T) {
	pl, err := Parse("#EXTM3U\n#EXTINF:9.5,\nseg1.ts\n", "https://host/path/index.m3u8")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if pl.Segments[0].URI != "https://host/path/seg1.ts" {
		t.Errorf("unexpected resolved uri: %s", pl.Segments[0].URI)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	opts.setDefaults()

	if opts.Timeout != defaultTimeout {
		t.Errorf("expected default timeout, got %v", opts.Timeout)
	}
	if opts.UserAgent == "" {
		t.Error("expected default user agent")
	}
	if opts.HTTPClient == nil {
		t.Fatal("expected default http client")
	}
	if opts.HTTPClient.Timeout != defaultTimeout {
		t.Errorf("expected client timeout to match, got %v", opts.HTTPClient.Timeout)
	}
}
