package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/studyrathour/hlsget"

	"github.com/charmbracelet/log"
	"github.com/grafov/m3u8"
	"github.com/spf13/cobra"
)

var (
	output      string
	headersFile string
	userAgent   string
	timeout     time.Duration
	quiet       bool
	verbose     bool
)

func runE(cmd *cobra.Command, args []string) error {
	playlistURL := args[0]

	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	if quiet {
		log.SetLevel(log.WarnLevel)
	}

	headers, err := loadHeaders(headersFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := hlsget.New(hlsget.Options{
		UserAgent: userAgent,
		Headers:   headers,
		Timeout:   timeout,
	})

	log.Debug("Fetching playlist", "url", playlistURL)
	data, err := client.Fetch(ctx, playlistURL)
	if err != nil {
		return fmt.Errorf("fetch playlist: %w", err)
	}

	pl, err := hlsget.Parse(string(data), playlistURL)
	if err != nil {
		if errors.Is(err, hlsget.ErrMasterPlaylist) {
			listVariants(data)
		}
		return err
	}

	if len(pl.Segments) == 0 {
		return hlsget.ErrNoSegments
	}

	log.Info("Starting download", "segments", len(pl.Segments), "duration", fmt.Sprintf("%.1fs", pl.TotalDuration))

	res, err := client.Download(ctx, pl, func(p hlsget.Progress) {
		if p.SegmentIndex == 0 {
			return
		}
		log.Info("Downloaded segment", "segment", p.SegmentIndex, "total", p.TotalSegments, "percent", p.Percentage, "bytes", p.DownloadedBytes)
	})
	if err != nil {
		var segErr *hlsget.SegmentError
		if errors.As(err, &segErr) {
			log.Error("Segment download failed", "segment", segErr.Index, "url", segErr.URI)
		}
		return err
	}

	if err := os.WriteFile(output, res.Data, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.Info("Saved output", "path", output, "bytes", len(res.Data), "id", res.ID)
	return nil
}

// listVariants prints the media playlists a master playlist advertises so
// the user can rerun against one of them.
func listVariants(data []byte) {
	pl, listType, err := m3u8.DecodeFrom(bytes.NewReader(data), true)
	if err != nil || listType != m3u8.MASTER {
		return
	}
	master, ok := pl.(*m3u8.MasterPlaylist)
	if !ok {
		return
	}

	log.Info("Master playlist detected, rerun with one of its media playlists")
	for _, v := range master.Variants {
		if v == nil {
			continue
		}
		log.Info("Variant", "bandwidth", v.Bandwidth, "resolution", v.Resolution, "uri", v.URI)
	}
}

// loadHeaders reads a JSON object of header name/value pairs.
func loadHeaders(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read headers file: %w", err)
	}
	var headers map[string]string
	if err := json.Unmarshal(data, &headers); err != nil {
		return nil, fmt.Errorf("parse headers file: %w", err)
	}
	return headers, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "hlsget [url]",
		Short:         "Download an HLS media playlist into a single file",
		Args:          cobra.ExactArgs(1),
		RunE:          runE,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&output, "output", "o", "video.mp4", "Path for the assembled media file")
	flags.StringVar(&headersFile, "headers", "", "Path to JSON file containing request headers")
	flags.StringVar(&userAgent, "user-agent", "", "Override the User-Agent header")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "Per-request timeout")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Only report warnings and errors")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
