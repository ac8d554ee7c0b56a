package models

// TransferStatus classifies what happened to a single asset.
type TransferStatus string

const (
	TransferSucceeded TransferStatus = "succeeded"
	TransferSkipped   TransferStatus = "skipped"
	TransferFailed    TransferStatus = "failed"
)

// TransferOutcome is the result of pushing one asset through a transfer
// strategy. Bytes is only populated when the strategy moved the binary
// itself; cache-trigger transfers leave it zero.
type TransferOutcome struct {
	Status TransferStatus
	Reason string
	Err    error
	Bytes  int64
}

func Succeeded() TransferOutcome {
	return TransferOutcome{Status: TransferSucceeded}
}

func Skipped(reason string) TransferOutcome {
	return TransferOutcome{Status: TransferSkipped, Reason: reason}
}

func Failed(reason string, err error) TransferOutcome {
	return TransferOutcome{Status: TransferFailed, Reason: reason, Err: err}
}
