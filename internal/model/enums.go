package model

// ProposalStatus is the lifecycle state of a proposal.
type ProposalStatus string

const (
	ProposalStatusDraft    ProposalStatus = "draft"
	ProposalStatusSent     ProposalStatus = "sent"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusDeclined ProposalStatus = "declined"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
	InvoiceStatusVoid  InvoiceStatus = "void"
)

func ValidProposalStatuses() []string {
	return []string{
		string(ProposalStatusDraft),
		string(ProposalStatusSent),
		string(ProposalStatusAccepted),
		string(ProposalStatusDeclined),
	}
}

func ValidInvoiceStatuses() []string {
	return []string{
		string(InvoiceStatusDraft),
		string(InvoiceStatusSent),
		string(InvoiceStatusPaid),
		string(InvoiceStatusVoid),
	}
}
