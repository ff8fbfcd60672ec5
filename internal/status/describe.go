package status

// Summary is a flat, JSON-friendly view of a Resolved value.
type Summary struct {
	Stage            string `json:"stage"`
	Variant          string `json:"variant,omitempty"`
	Kind             string `json:"kind,omitempty"`
	EntryID          string `json:"entry_id,omitempty"`
	Product          string `json:"product,omitempty"`
	Code             *int   `json:"code,omitempty"`
	RepaymentCode    string `json:"repayment_code,omitempty"`
	RetryAfterDate   string `json:"retry_after_date,omitempty"`
	CountdownSeconds *int   `json:"countdown_seconds,omitempty"`
	IntervalSeconds  *int   `json:"interval_seconds,omitempty"`
	Overdue          bool   `json:"overdue,omitempty"`
	Entries          int    `json:"entries,omitempty"`
}

// Describe flattens r into a Summary. A nil r describes as Unknown.
func Describe(r Resolved) Summary {
	s := Summary{Stage: StageOf(r).String()}

	switch v := r.(type) {
	case RiskCountdown:
		s.setEntry(v.Entry)
		s.CountdownSeconds = v.CountdownSeconds
	case AuditPending:
		s.setEntry(v.Entry)
		s.IntervalSeconds = v.RetryIntervalSeconds
	case AuditRejected:
		s.setEntry(v.Entry)
		s.Variant = v.Variant.String()
		s.RetryAfterDate = v.RetryAfterDate
		s.IntervalSeconds = v.RetryIntervalSeconds
	case IDOrFaceRejected:
		s.Kind = v.Kind.String()
	case LoanTermsUnconfirmed:
		s.setEntry(v.Entry)
	case Disbursing:
		s.setEntry(v.Entry)
	case DisbursementFailed:
		s.setEntry(v.Entry)
	case ProductList:
		s.Entries = len(v.Entries)
	case Payment:
		s.setEntry(v.Entry)
		s.Overdue = v.Overdue
	case Unknown:
		s.Code = v.Code
		s.RepaymentCode = v.RepaymentCode
	}
	return s
}

func (s *Summary) setEntry(e Entry) {
	s.EntryID = e.ID
	s.Product = e.ProductName
}
