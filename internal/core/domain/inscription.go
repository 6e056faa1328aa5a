package domain

import "fmt"

// OrdinalOperation is a tagged union attached to a transaction by the
// augmentation steps. Exactly one of the two fields is set.
type OrdinalOperation struct {
	Reveal   *InscriptionRevealed
	Transfer *InscriptionTransferred
}

// InscriptionRevealed describes a newly revealed inscription: its assigned
// sequence number, the satoshi it is bound to and where that satoshi landed.
type InscriptionRevealed struct {
	InscriptionID string
	Number        int64
	Ordinal       uint64
	ContentType   string
	ContentLength int
	InputIndex    int
	SatPoint      string
}

// InscriptionTransferred tracks the movement of a previously inscribed
// satoshi spent by this block.
type InscriptionTransferred struct {
	InscriptionID        string
	Number               int64
	Ordinal              uint64
	SatPointPreTransfer  string
	SatPointPostTransfer string
}

// NewInscriptionID builds the canonical <txid>i<index> inscription identifier.
func NewInscriptionID(txHash string, index int) string {
	return fmt.Sprintf("%si%d", txHash, index)
}

// NewSatPoint builds the canonical <txid>:<vout>:<offset> satpoint string.
func NewSatPoint(txHash string, vout uint32, offset uint64) string {
	return fmt.Sprintf("%s:%d:%d", txHash, vout, offset)
}

// NewOutPoint builds the canonical <txid>:<vout> outpoint string.
func NewOutPoint(txHash string, vout uint32) string {
	return fmt.Sprintf("%s:%d", txHash, vout)
}
