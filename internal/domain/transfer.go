package domain

// TransferState tracks progress of the two-leg transfer saga.
// Once the debit leg commits, the saga must run to TransferStateComplete
// or one of the compensation outcomes; it cannot be abandoned mid-flight.
type TransferState string

const (
	TransferStateInitiated        TransferState = "INITIATED"
	TransferStateSenderChecked    TransferState = "SENDER_CHECKED"
	TransferStateReceiverChecked  TransferState = "RECEIVER_CHECKED"
	TransferStateDebited          TransferState = "DEBITED"
	TransferStateCredited         TransferState = "CREDITED"
	TransferStateRecorded         TransferState = "RECORDED"
	TransferStateComplete         TransferState = "COMPLETE"
	TransferStateFailedValidation TransferState = "FAILED_VALIDATION"
	TransferStateCompensating     TransferState = "COMPENSATING"
	TransferStateCompensated      TransferState = "COMPENSATED"
	TransferStateCompensatedFail  TransferState = "COMPENSATED_FAILURE"
)
