package domain

// CompactedBlock is the minimal persisted summary of a block, independent of
// inscription content. The worker writes one for every block it is handed,
// whether or not inscription processing ran, so the block store always
// reflects canonical chain continuity.
type CompactedBlock struct {
	Index   uint64
	Hash    string
	Payload []byte
}
