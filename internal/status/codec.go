// Package status resolves backend application status payloads into a single
// lifecycle stage.
//
// The backend reports state through several overlapping fields: a top-level
// code, a sub-status object on the first list entry (or the same fields
// flattened onto the entry), a doubly nested loan view, and a separate
// repayment sub-status used while an entry is in a billing period. Resolve
// applies a fixed precedence over these and never fails: anything it cannot
// interpret resolves to Unknown.
package status

// Codec resolves payloads against an immutable code table.
type Codec struct {
	codes Codes
}

// NewCodec creates a Codec using a copy of codes.
func NewCodec(codes Codes) *Codec {
	return &Codec{codes: codes.clone()}
}

var defaultCodec = NewCodec(DefaultCodes())

// Resolve resolves p with the default code table.
func Resolve(p RawPayload) Resolved {
	return defaultCodec.Resolve(p)
}

// Codes returns a copy of the codec's code table.
func (c *Codec) Codes() Codes {
	return c.codes.clone()
}

// Resolve maps p to exactly one stage. It has no side effects and returns
// Unknown with a nil code for payloads that do not decode. Only the first
// list entry is decoded for stage selection, so later records never affect
// the result.
func (c *Codec) Resolve(p RawPayload) Resolved {
	primary, entries, err := decodePayload(p)
	if err != nil {
		return Unknown{}
	}

	if r, ok := c.shortCircuit(primary, entries); ok {
		return r
	}

	if len(entries) == 0 {
		return c.byPrimary(primary)
	}

	entry, err := decodeEntry(entries[0])
	if err != nil {
		return Unknown{}
	}
	if entry.shape.RepaymentGate {
		return c.byRepayment(entry)
	}
	return c.bySubStatus(entry)
}

// shortCircuit handles the top-level codes that win over entry inspection.
func (c *Codec) shortCircuit(primary *int, entries []any) (Resolved, bool) {
	if primary == nil {
		return nil, false
	}
	switch *primary {
	case c.codes.Primary.IDRejected:
		return IDOrFaceRejected{Kind: DocumentID}, true
	case c.codes.Primary.FaceRejected:
		return IDOrFaceRejected{Kind: DocumentFace}, true
	case c.codes.Primary.HasProducts:
		return ProductList{Entries: decodeViews(entries)}, true
	}
	return nil, false
}

// byPrimary resolves a payload without list entries.
func (c *Codec) byPrimary(primary *int) Resolved {
	if primary == nil {
		return Unknown{}
	}

	pc := c.codes.Primary
	switch *primary {
	case pc.NeedsEntry:
		return EntryForm{}
	case pc.RiskCountdown:
		return RiskCountdown{}
	case pc.UnderReview:
		return AuditPending{}
	case pc.Rejected:
		return AuditRejected{Variant: FinalRejected}
	case pc.TermsUnconfirmed:
		return LoanTermsUnconfirmed{}
	case pc.Disbursing:
		return Disbursing{}
	case pc.DisbursementFailed:
		return DisbursementFailed{}
	}
	return Unknown{Code: intPtr(*primary)}
}

// byRepayment resolves an entry that is in a billing period.
func (c *Codec) byRepayment(e decodedEntry) Resolved {
	var code string
	if e.shape.RepaymentSubStatus != nil && e.shape.RepaymentSubStatus.Status != nil {
		code = *e.shape.RepaymentSubStatus.Status
	}

	rc := c.codes.Repayment
	switch code {
	case "":
		return Unknown{}
	case rc.Disbursing:
		return Disbursing{Entry: e.view()}
	case rc.DisbursementFailed:
		return DisbursementFailed{Entry: e.view()}
	case rc.InRepayment:
		return Payment{Entry: e.view(), LoanView: e.loanView(), Overdue: e.shape.Overdue}
	}
	return Unknown{RepaymentCode: code}
}

// bySubStatus resolves an entry from its merged sub-status.
func (c *Codec) bySubStatus(e decodedEntry) Resolved {
	sub := e.sub
	if sub.Status == nil {
		return Unknown{}
	}

	ec := c.codes.Entry
	status := *sub.Status
	switch {
	case status == ec.Hold && sub.Secondary != nil && *sub.Secondary == ec.SecondaryTermsUnconfirmed:
		return LoanTermsUnconfirmed{Entry: e.view(), LoanView: e.loanView()}
	case status == ec.Hold && sub.Secondary != nil && *sub.Secondary == ec.SecondaryRiskHold:
		return RiskCountdown{Entry: e.view(), CountdownSeconds: copyInt(sub.CountdownSeconds)}
	case ec.isUnderReview(status):
		return AuditPending{Entry: e.view(), RetryIntervalSeconds: copyInt(sub.RetryIntervalSeconds)}
	case status == ec.Rejected:
		return c.rejected(e)
	case status == ec.Disbursing:
		return Disbursing{Entry: e.view()}
	}
	return Unknown{Code: intPtr(status)}
}

// rejected picks the AuditRejected variant from the secondary code.
func (c *Codec) rejected(e decodedEntry) Resolved {
	ec := c.codes.Entry
	sub := e.sub
	switch {
	case sub.Secondary != nil && *sub.Secondary == ec.RejectPendingReview:
		return AuditRejected{
			Variant:              PendingReview,
			Entry:                e.view(),
			RetryIntervalSeconds: copyInt(sub.RetryIntervalSeconds),
		}
	case sub.Secondary != nil && *sub.Secondary == ec.RejectRetryable:
		r := AuditRejected{Variant: RejectedRetryable, Entry: e.view()}
		if sub.RetryAfterDate != nil {
			r.RetryAfterDate = *sub.RetryAfterDate
		}
		return r
	}
	return AuditRejected{Variant: FinalRejected, Entry: e.view()}
}

func intPtr(v int) *int {
	return &v
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	return intPtr(*p)
}
