package status

// Codes is the numeric code table the codec resolves against.
// A Codec copies the table on construction, so later edits to a Codes value
// never change how an existing Codec resolves payloads.
type Codes struct {
	Primary   PrimaryCodes   `yaml:"primary" mapstructure:"primary"`
	Entry     EntryCodes     `yaml:"entry" mapstructure:"entry"`
	Repayment RepaymentCodes `yaml:"repayment" mapstructure:"repayment"`
}

// PrimaryCodes are the top-level application status values.
type PrimaryCodes struct {
	NeedsEntry         int `yaml:"needs_entry" mapstructure:"needs_entry"`
	RiskCountdown      int `yaml:"risk_countdown" mapstructure:"risk_countdown"`
	UnderReview        int `yaml:"under_review" mapstructure:"under_review"`
	Rejected           int `yaml:"rejected" mapstructure:"rejected"`
	IDRejected         int `yaml:"id_rejected" mapstructure:"id_rejected"`
	FaceRejected       int `yaml:"face_rejected" mapstructure:"face_rejected"`
	TermsUnconfirmed   int `yaml:"terms_unconfirmed" mapstructure:"terms_unconfirmed"`
	Disbursing         int `yaml:"disbursing" mapstructure:"disbursing"`
	DisbursementFailed int `yaml:"disbursement_failed" mapstructure:"disbursement_failed"`
	HasProducts        int `yaml:"has_products" mapstructure:"has_products"`
}

// EntryCodes are the sub-status values found on a list entry.
type EntryCodes struct {
	Hold        int   `yaml:"hold" mapstructure:"hold"`
	UnderReview []int `yaml:"under_review" mapstructure:"under_review"`
	Rejected    int   `yaml:"rejected" mapstructure:"rejected"`
	Disbursing  int   `yaml:"disbursing" mapstructure:"disbursing"`

	// Secondary codes paired with Hold.
	SecondaryTermsUnconfirmed int `yaml:"secondary_terms_unconfirmed" mapstructure:"secondary_terms_unconfirmed"`
	SecondaryRiskHold         int `yaml:"secondary_risk_hold" mapstructure:"secondary_risk_hold"`

	// Secondary codes paired with Rejected. Anything else is a final rejection.
	RejectPendingReview int `yaml:"reject_pending_review" mapstructure:"reject_pending_review"`
	RejectRetryable     int `yaml:"reject_retryable" mapstructure:"reject_retryable"`
}

// RepaymentCodes are the string codes of the repayment sub-status.
type RepaymentCodes struct {
	Disbursing         string `yaml:"disbursing" mapstructure:"disbursing"`
	DisbursementFailed string `yaml:"disbursement_failed" mapstructure:"disbursement_failed"`
	InRepayment        string `yaml:"in_repayment" mapstructure:"in_repayment"`
}

// DefaultCodes returns the code table used by the production backend.
func DefaultCodes() Codes {
	return Codes{
		Primary: PrimaryCodes{
			NeedsEntry:         1,
			RiskCountdown:      2,
			UnderReview:        3,
			Rejected:           4,
			IDRejected:         5,
			FaceRejected:       6,
			TermsUnconfirmed:   7,
			Disbursing:         8,
			DisbursementFailed: 9,
			HasProducts:        10,
		},
		Entry: EntryCodes{
			Hold:                      0,
			UnderReview:               []int{1, 2},
			Rejected:                  3,
			Disbursing:                4,
			SecondaryTermsUnconfirmed: 0,
			SecondaryRiskHold:         1,
			RejectPendingReview:       0,
			RejectRetryable:           2,
		},
		Repayment: RepaymentCodes{
			Disbursing:         "disbursing",
			DisbursementFailed: "disbursement_failed",
			InRepayment:        "repaying",
		},
	}
}

func (c Codes) clone() Codes {
	out := c
	out.Entry.UnderReview = append([]int(nil), c.Entry.UnderReview...)
	return out
}

func (c EntryCodes) isUnderReview(code int) bool {
	for _, v := range c.UnderReview {
		if v == code {
			return true
		}
	}
	return false
}
