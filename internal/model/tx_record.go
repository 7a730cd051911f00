package model

// TxKind names the orchestrator operation that produced a transfer.
type TxKind string

const (
	TxKindSwap     TxKind = "swap"
	TxKindAdd      TxKind = "add"
	TxKindWithdraw TxKind = "withdraw"
)

// TxRecord is a journal entry for one submitted transfer.
type TxRecord struct {
	ID          string `json:"id"`
	Kind        TxKind `json:"kind"`
	Chain       string `json:"chain"`
	TxID        string `json:"tx_id"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
	Recipient   string `json:"recipient"`
	Memo        string `json:"memo"`
	SubmittedAt string `json:"submitted_at"`
}
