package tui

import (
	"fmt"
	"strings"

	"github.com/npratt/loanpoll/internal/refresh"
	"github.com/npratt/loanpoll/internal/status"
)

// maxListedProducts caps the product lines shown for ProductList.
const maxListedProducts = 5

// stageHeadline returns the one-line description of a resolution.
func stageHeadline(r status.Resolved) string {
	switch v := r.(type) {
	case nil:
		return "Waiting for first status..."
	case status.EntryForm:
		return "Application not yet submitted"
	case status.RiskCountdown:
		return "Risk assessment in progress"
	case status.AuditPending:
		return "Application under review"
	case status.AuditRejected:
		switch v.Variant {
		case status.PendingReview:
			return "Rejection pending manual review"
		case status.RejectedRetryable:
			if v.RetryAfterDate != "" {
				return "Rejected, may reapply after " + v.RetryAfterDate
			}
			return "Rejected, may reapply later"
		default:
			return "Application rejected"
		}
	case status.IDOrFaceRejected:
		if v.Kind == status.DocumentFace {
			return "Face verification failed"
		}
		return "ID document verification failed"
	case status.LoanTermsUnconfirmed:
		return "Loan terms awaiting confirmation"
	case status.Disbursing:
		return "Funds are being disbursed"
	case status.DisbursementFailed:
		return "Disbursement failed"
	case status.ProductList:
		return fmt.Sprintf("%d products available", len(v.Entries))
	case status.Payment:
		if v.Overdue {
			return "Loan in repayment (OVERDUE)"
		}
		return "Loan in repayment"
	default:
		return "Unrecognised status"
	}
}

// stageDetails returns the detail lines shown under the headline.
func stageDetails(r status.Resolved) []string {
	var lines []string
	switch v := r.(type) {
	case status.RiskCountdown:
		lines = appendEntry(lines, v.Entry)
	case status.AuditPending:
		lines = appendEntry(lines, v.Entry)
	case status.AuditRejected:
		lines = appendEntry(lines, v.Entry)
	case status.LoanTermsUnconfirmed:
		lines = appendEntry(lines, v.Entry)
		lines = appendLoan(lines, v.LoanView)
	case status.Disbursing:
		lines = appendEntry(lines, v.Entry)
	case status.DisbursementFailed:
		lines = appendEntry(lines, v.Entry)
	case status.ProductList:
		for i, e := range v.Entries {
			if i == maxListedProducts {
				lines = append(lines, fmt.Sprintf("  ... and %d more", len(v.Entries)-maxListedProducts))
				break
			}
			line := "  " + entryLabel(e)
			if e.Locked {
				line += " [locked]"
			}
			lines = append(lines, line)
		}
	case status.Payment:
		lines = appendEntry(lines, v.Entry)
		lines = appendLoan(lines, v.LoanView)
	case status.Unknown:
		if v.Code != nil {
			lines = append(lines, fmt.Sprintf("code: %d", *v.Code))
		}
		if v.RepaymentCode != "" {
			lines = append(lines, "repayment code: "+v.RepaymentCode)
		}
	}
	return lines
}

func appendEntry(lines []string, e status.Entry) []string {
	if label := entryLabel(e); label != "" {
		lines = append(lines, "application: "+label)
	}
	if e.Amount != "" {
		lines = append(lines, "amount: "+e.Amount)
	}
	return lines
}

func entryLabel(e status.Entry) string {
	switch {
	case e.ProductName != "" && e.ID != "":
		return fmt.Sprintf("%s (%s)", e.ProductName, e.ID)
	case e.ProductName != "":
		return e.ProductName
	default:
		return e.ID
	}
}

func appendLoan(lines []string, lv status.LoanView) []string {
	if lv.OrderID != "" {
		lines = append(lines, "order: "+lv.OrderID)
	}
	var parts []string
	if lv.Amount != "" {
		parts = append(parts, "principal "+lv.Amount)
	}
	if lv.RepayAmount != "" {
		parts = append(parts, "repay "+lv.RepayAmount)
	}
	if lv.TermDays > 0 {
		parts = append(parts, fmt.Sprintf("%d days", lv.TermDays))
	}
	if lv.DueDate != "" {
		parts = append(parts, "due "+lv.DueDate)
	}
	if len(parts) > 0 {
		lines = append(lines, "loan: "+strings.Join(parts, ", "))
	}
	return lines
}

// scheduleText describes when the next automatic fetch happens.
func scheduleText(d refresh.Directive, remaining int, stopped bool) string {
	if stopped {
		return "polling stopped"
	}
	switch d.Mode {
	case refresh.ModeFixedInterval:
		return "auto refresh every " + formatSeconds(d.IntervalSeconds)
	case refresh.ModeCountdown:
		if remaining > 0 {
			return "next check in " + formatSeconds(remaining)
		}
		return "checking..."
	default:
		return "manual refresh only"
	}
}

// formatSeconds formats a second count as "45s", "2m" or "1m05s".
func formatSeconds(sec int) string {
	if sec < 60 {
		return fmt.Sprintf("%ds", max(sec, 0))
	}
	m, s := sec/60, sec%60
	if s == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
