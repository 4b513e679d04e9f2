package domain

type Segment struct {
	Duration float64
	URI      string
	Title    string
}

type Playlist struct {
	Segments       []Segment
	TotalDuration  float64
	TargetDuration float64
	Version        int
	MediaSequence  int
}
