// Package request drives a download request through its lifecycle:
// fetch, optional conversion, and handoff for upload, with every state
// transition persisted.
package request

// Status is the lifecycle state of a download request.
type Status string

const (
	StatusRequested         Status = "requested"
	StatusInfoFetched       Status = "info_fetched"
	StatusDownloadStarted   Status = "download_started"
	StatusDownloading       Status = "downloading"
	StatusConversionStarted Status = "conversion_started"
	StatusConverting        Status = "converting"
	StatusUploadStarted     Status = "upload_started"
	StatusCompleted         Status = "completed"
	StatusFailed            Status = "failed"
)

// statusRank orders the lifecycle. Transitions never move backwards,
// which keeps late writers from undoing a terminal state.
var statusRank = map[Status]int{
	StatusRequested:         0,
	StatusInfoFetched:       1,
	StatusDownloadStarted:   2,
	StatusDownloading:       3,
	StatusConversionStarted: 4,
	StatusConverting:        5,
	StatusUploadStarted:     6,
	StatusCompleted:         7,
	StatusFailed:            7,
}

func (s Status) Rank() int {
	return statusRank[s]
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanAdvanceTo reports whether moving from s to next is a legal
// transition. Terminal states absorb everything; otherwise only
// forward moves are allowed.
func (s Status) CanAdvanceTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	return statusRank[next] > statusRank[s]
}

func (s Status) String() string {
	return string(s)
}
