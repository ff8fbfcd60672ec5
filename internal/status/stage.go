package status

// Stage identifies one canonical lifecycle state of a loan application.
type Stage int

const (
	StageUnknown Stage = iota
	StageEntryForm
	StageRiskCountdown
	StageAuditPending
	StageAuditRejected
	StageIDOrFaceRejected
	StageLoanTermsUnconfirmed
	StageDisbursing
	StageDisbursementFailed
	StageProductList
	StagePayment
)

// String returns the stage name used in logs, events and CLI output.
func (s Stage) String() string {
	switch s {
	case StageEntryForm:
		return "EntryForm"
	case StageRiskCountdown:
		return "RiskCountdown"
	case StageAuditPending:
		return "AuditPending"
	case StageAuditRejected:
		return "AuditRejected"
	case StageIDOrFaceRejected:
		return "IdOrFaceRejected"
	case StageLoanTermsUnconfirmed:
		return "LoanTermsUnconfirmed"
	case StageDisbursing:
		return "Disbursing"
	case StageDisbursementFailed:
		return "DisbursementFailed"
	case StageProductList:
		return "ProductList"
	case StagePayment:
		return "Payment"
	default:
		return "Unknown"
	}
}

// RejectVariant distinguishes the three AuditRejected presentations.
type RejectVariant int

const (
	FinalRejected RejectVariant = iota
	PendingReview
	RejectedRetryable
)

func (v RejectVariant) String() string {
	switch v {
	case PendingReview:
		return "pendingReview"
	case RejectedRetryable:
		return "rejectedRetryable"
	default:
		return "finalRejected"
	}
}

// DocumentKind names the document whose verification failed.
type DocumentKind int

const (
	DocumentID DocumentKind = iota
	DocumentFace
)

func (k DocumentKind) String() string {
	if k == DocumentFace {
		return "face"
	}
	return "id"
}

// Resolved is the tagged result of resolving a status payload.
// The concrete types below are the only implementations.
type Resolved interface {
	Stage() Stage
	isResolved()
}

// LoanView is the loan summary the backend nests inside a sub-status.
type LoanView struct {
	OrderID     string `json:"order_id,omitempty" mapstructure:"orderId"`
	Amount      string `json:"amount,omitempty" mapstructure:"amount"`
	RepayAmount string `json:"repay_amount,omitempty" mapstructure:"repayAmount"`
	TermDays    int    `json:"term_days,omitempty" mapstructure:"termDays"`
	DueDate     string `json:"due_date,omitempty" mapstructure:"dueDate"`
}

// Entry is the display data of one product/application record.
type Entry struct {
	ID          string `json:"id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Locked      bool   `json:"locked,omitempty"`
	Overdue     bool   `json:"overdue,omitempty"`
}

type EntryForm struct{}

// RiskCountdown is held by the risk engine. CountdownSeconds is the raw
// server value; nil means the server sent none.
type RiskCountdown struct {
	Entry            Entry `json:"entry"`
	CountdownSeconds *int  `json:"countdown_seconds,omitempty"`
}

type AuditPending struct {
	Entry                Entry `json:"entry"`
	RetryIntervalSeconds *int  `json:"retry_interval_seconds,omitempty"`
}

// AuditRejected carries RetryAfterDate only for RejectedRetryable and
// RetryIntervalSeconds only for PendingReview.
type AuditRejected struct {
	Variant              RejectVariant `json:"variant"`
	Entry                Entry         `json:"entry"`
	RetryAfterDate       string        `json:"retry_after_date,omitempty"`
	RetryIntervalSeconds *int          `json:"retry_interval_seconds,omitempty"`
}

type IDOrFaceRejected struct {
	Kind DocumentKind `json:"kind"`
}

type LoanTermsUnconfirmed struct {
	Entry    Entry    `json:"entry"`
	LoanView LoanView `json:"loan_view"`
}

type Disbursing struct {
	Entry Entry `json:"entry"`
}

type DisbursementFailed struct {
	Entry Entry `json:"entry"`
}

type ProductList struct {
	Entries []Entry `json:"entries"`
}

type Payment struct {
	Entry    Entry    `json:"entry"`
	LoanView LoanView `json:"loan_view"`
	Overdue  bool     `json:"overdue"`
}

// Unknown is the safe fallback. Code is the code that failed to match, nil
// when the payload had none or could not be decoded.
type Unknown struct {
	Code          *int   `json:"code,omitempty"`
	RepaymentCode string `json:"repayment_code,omitempty"`
}

func (EntryForm) Stage() Stage            { return StageEntryForm }
func (RiskCountdown) Stage() Stage        { return StageRiskCountdown }
func (AuditPending) Stage() Stage         { return StageAuditPending }
func (AuditRejected) Stage() Stage        { return StageAuditRejected }
func (IDOrFaceRejected) Stage() Stage     { return StageIDOrFaceRejected }
func (LoanTermsUnconfirmed) Stage() Stage { return StageLoanTermsUnconfirmed }
func (Disbursing) Stage() Stage           { return StageDisbursing }
func (DisbursementFailed) Stage() Stage   { return StageDisbursementFailed }
func (ProductList) Stage() Stage          { return StageProductList }
func (Payment) Stage() Stage              { return StagePayment }
func (Unknown) Stage() Stage              { return StageUnknown }

func (EntryForm) isResolved()            {}
func (RiskCountdown) isResolved()        {}
func (AuditPending) isResolved()         {}
func (AuditRejected) isResolved()        {}
func (IDOrFaceRejected) isResolved()     {}
func (LoanTermsUnconfirmed) isResolved() {}
func (Disbursing) isResolved()           {}
func (DisbursementFailed) isResolved()   {}
func (ProductList) isResolved()          {}
func (Payment) isResolved()              {}
func (Unknown) isResolved()              {}

// StageOf returns the stage of r, treating nil as StageUnknown.
func StageOf(r Resolved) Stage {
	if r == nil {
		return StageUnknown
	}
	return r.Stage()
}
