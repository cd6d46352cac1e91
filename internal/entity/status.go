package entity

type Status string

// Image records only ever move pending -> ready or pending -> failed; both
// are terminal for automatic processing. Processing/Processed are used by
// outbox rows only.
const (
	Pending    Status = "pending"
	Ready      Status = "ready"
	Failed     Status = "failed"
	Processing Status = "processing"
	Processed  Status = "processed"
)
