package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sync"

	"github.com/studyrathour/hlsget/internal/domain"

	"github.com/google/uuid"
)

type Pipeline struct {
	fetcher domain.Fetcher

	mu      sync.Mutex
	running bool
}

func NewPipeline(fetcher domain.Fetcher) *Pipeline {
	return &Pipeline{fetcher: fetcher}
}

func (p *Pipeline) Run(ctx context.Context, pl *domain.Playlist, onProgress domain.ProgressFunc) (*domain.Result, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, domain.ErrDownloadInProgress
	}
	p.running = true
	p.mu.Unlock()
	defer p.finish()

	if len(pl.Segments) == 0 {
		return nil, domain.ErrNoSegments
	}

	total := len(pl.Segments)
	parts := make([][]byte, 0, total)
	var downloaded int64

	p.report(onProgress, 0, total, downloaded)

	// Segments are fetched one at a time, strictly in playlist order.
	for i, seg := range pl.Segments {
		if ctx.Err() != nil {
			return nil, domain.ErrCancelled
		}

		data, err := p.fetcher.Fetch(ctx, seg.URI)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil, domain.ErrCancelled
			}
			return nil, &domain.SegmentError{Index: i + 1, URI: seg.URI, Err: err}
		}

		parts = append(parts, data)
		downloaded += int64(len(data))
		p.report(onProgress, i+1, total, downloaded)
	}

	return &domain.Result{
		ID:        uuid.New().String(),
		MediaType: domain.MediaTypeMP4,
		Data:      bytes.Join(parts, nil),
	}, nil
}

func (p *Pipeline) finish() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

func (p *Pipeline) report(onProgress domain.ProgressFunc, completed, total int, downloaded int64) {
	if onProgress == nil {
		return
	}
	onProgress(domain.Progress{
		SegmentIndex:    completed,
		TotalSegments:   total,
		DownloadedBytes: downloaded,
		TotalBytes:      downloaded,
		Percentage:      percentage(completed, total),
	})
}

func percentage(completed, total int) int {
	return int(math.Round(float64(completed) / float64(total) * 100))
}
