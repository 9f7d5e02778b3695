package collection

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance used when comparing due and paid amounts
var Epsilon = decimal.New(1, -5)

// Installment status labels. These literals are part of the wire contract.
const (
	LabelCollections             = "Collections"
	LabelOverdue                 = "Overdue"
	LabelPending                 = "Pending"
	LabelPartiallyPaid           = "PartiallyPaid"
	LabelPaid                    = "Paid"
	LabelPaidSeveralInstallments = "PaidSeveralInstallments"
	LabelRemainingInstallments   = "RemainingInstallments"
	LabelSettled                 = "Settled"
	LabelVoid                    = "Void"
	LabelUnsettled               = "Unsettled"
)

// UnrankedSeverity is assigned to labels outside the severity table; they sort last.
const UnrankedSeverity = 100

var severityTable = map[string]int{
	normalizeLabel(LabelCollections):             0,
	normalizeLabel(LabelOverdue):                 1,
	normalizeLabel(LabelPending):                 2,
	normalizeLabel(LabelPartiallyPaid):           3,
	normalizeLabel(LabelPaid):                    4,
	normalizeLabel(LabelPaidSeveralInstallments): 5,
	normalizeLabel(LabelRemainingInstallments):   6,
	normalizeLabel(LabelSettled):                 7,
	normalizeLabel(LabelVoid):                    8,
}

func normalizeLabel(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		switch r {
		case ' ', '_', '-', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Status is a derived label with its business severity
type Status struct {
	Label    string `json:"label"`
	Severity int    `json:"severity"`
}

// Severity returns the business priority of a label; lower is more urgent
func Severity(label string) int {
	if s, ok := severityTable[normalizeLabel(label)]; ok {
		return s
	}
	return UnrankedSeverity
}

// SameLabel compares labels ignoring case and interior spaces
func SameLabel(a, b string) bool {
	return normalizeLabel(a) == normalizeLabel(b)
}

// NewStatus builds a Status from a label
func NewStatus(label string) Status {
	return Status{Label: label, Severity: Severity(label)}
}

// InstallmentStatus derives the installment label. A non-empty override wins;
// otherwise paid-ness, then due date against today decide.
func InstallmentStatus(due, paid decimal.Decimal, dueDate *time.Time, override string, today time.Time) Status {
	if o := strings.TrimSpace(override); o != "" {
		return NewStatus(o)
	}
	return NaturalInstallmentStatus(due, paid, dueDate, today)
}

// NaturalInstallmentStatus derives the label ignoring any override
func NaturalInstallmentStatus(due, paid decimal.Decimal, dueDate *time.Time, today time.Time) Status {
	remaining := due.Sub(paid)
	switch {
	case due.IsPositive() && remaining.LessThanOrEqual(Epsilon):
		return NewStatus(LabelPaid)
	case paid.GreaterThan(Epsilon) && remaining.GreaterThan(Epsilon):
		return NewStatus(LabelPartiallyPaid)
	case dueDate != nil && dayOf(*dueDate).Before(dayOf(today)):
		return NewStatus(LabelOverdue)
	default:
		return NewStatus(LabelPending)
	}
}

// ContractStatus maps the contract state to its label unless overridden
func ContractStatus(state ContractState, override string) Status {
	if o := strings.TrimSpace(override); o != "" {
		return NewStatus(o)
	}
	switch state {
	case ContractStateClosed:
		return NewStatus(LabelSettled)
	case ContractStateVoid:
		return NewStatus(LabelVoid)
	default:
		return NewStatus(LabelUnsettled)
	}
}

// ParseDueDate parses a due date in date-only or RFC3339 form.
// Returns nil when the value does not parse.
func ParseDueDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// dayOf truncates to the calendar day in the value's own location
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StatusEvaluator binds one "today" for a whole evaluation pass
type StatusEvaluator struct {
	today time.Time
}

// NewStatusEvaluator creates an evaluator pinned to today
func NewStatusEvaluator(today time.Time) StatusEvaluator {
	return StatusEvaluator{today: today}
}

// Today returns the pinned evaluation date
func (e StatusEvaluator) Today() time.Time {
	return e.today
}

// Installment derives the status of an installment
func (e StatusEvaluator) Installment(inst *Installment) Status {
	return InstallmentStatus(inst.AmountDue, inst.AmountPaid, inst.DueDate, inst.StatusOverride, e.today)
}

// NaturalInstallment derives the status of an installment ignoring its override
func (e StatusEvaluator) NaturalInstallment(inst *Installment) Status {
	return NaturalInstallmentStatus(inst.AmountDue, inst.AmountPaid, inst.DueDate, e.today)
}

// Contract derives the status of a contract
func (e StatusEvaluator) Contract(c *Contract) Status {
	return ContractStatus(c.State, c.StatusOverride)
}

// Amounts derives a status from raw values, as used by previews
func (e StatusEvaluator) Amounts(due, paid decimal.Decimal, dueDate, override string) Status {
	return InstallmentStatus(due, paid, ParseDueDate(dueDate), override, e.today)
}
