package domain

// TransactionIdentifier wraps a transaction hash.
type TransactionIdentifier struct {
	Hash string
}

// TxIn is a transaction input. The ingester annotates each input with the
// value and confirmation height of the output it spends, the way it already
// annotates prevout values; traversal depends on both. Witness carries the
// raw witness stack; the inscription envelope, when present, lives in one of
// its elements.
type TxIn struct {
	PreviousTxHash      string
	PreviousOutputIndex uint32
	PreviousTxHeight    uint64
	Value               uint64
	Witness             [][]byte
}

// TxOut is a transaction output.
type TxOut struct {
	Value   uint64
	Address string
}

// Transaction holds the fields the ordinal protocol needs, plus the metadata
// slot the augmentation steps write into.
type Transaction struct {
	TransactionIdentifier TransactionIdentifier
	Inputs                []TxIn
	Outputs               []TxOut
	Metadata              TransactionMetadata
}

// TransactionMetadata is the augmentation target. OrdinalOperations is empty
// until the block transaction processor attaches reveal and transfer data.
type TransactionMetadata struct {
	OrdinalOperations []OrdinalOperation
}

// IsCoinbase reports whether the transaction mints new satoshis.
func (t *Transaction) IsCoinbase() bool {
	if len(t.Inputs) != 1 {
		return false
	}
	in := t.Inputs[0]
	return in.PreviousTxHash == CoinbasePrevTxHash
}

// CoinbasePrevTxHash is the all-zero previous output hash of a coinbase input.
const CoinbasePrevTxHash = "0000000000000000000000000000000000000000000000000000000000000000"
