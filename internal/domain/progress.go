package domain

type Progress struct {
	SegmentIndex    int
	TotalSegments   int
	DownloadedBytes int64
	// TotalBytes mirrors DownloadedBytes: segment sizes are unknown until
	// fetched, so no true total exists up front.
	TotalBytes int64
	Percentage int
}

type ProgressFunc func(Progress)
