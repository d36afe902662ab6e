package store

import "time"

// Service order lifecycle states.
const (
	StatusDraft     = "draft"
	StatusFinalized = "finalized"
)

// ServiceTypes lists the selectable service-type tags.
var ServiceTypes = []string{
	"installation",
	"configuration",
	"maintenance",
	"warranty",
	"inspection",
	"training",
}

var serviceTypeLabels = map[string]string{
	"installation":  "Installation",
	"configuration": "Configuration",
	"maintenance":   "Maintenance",
	"warranty":      "Warranty",
	"inspection":    "Failure/Inspection",
	"training":      "Training",
}

// ServiceTypeLabel maps a service-type tag to its printable label.
// Unknown tags print as-is so legacy data still renders.
func ServiceTypeLabel(code string) string {
	if label, ok := serviceTypeLabels[code]; ok {
		return label
	}
	return code
}

type ServiceOrder struct {
	ID     string
	Folio  string
	Status string

	ClientName    string
	ClientContact string
	ClientEmail   string
	ClientPhone   string
	Location      string
	ServiceDate   *time.Time
	ContactName   string

	ServiceTypes     []string
	ServiceTypeOther string

	EngineerName string
	EngineerID   string
	TicketID     string

	Title      string
	Activities string
	Findings   string

	Hours             float64
	Cost              float64
	CostNotApplicable bool
	CostToBeQuoted    bool

	Reschedule       bool
	RescheduleDate   *time.Time
	RescheduleTime   string
	RescheduleReason string

	SignatureRef  string
	InternalNotes string
	EmailSent     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

type EquipmentItem struct {
	ID          string
	OrderID     string
	Brand       string
	Model       string
	Serial      string
	Description string
}

type MaterialItem struct {
	ID          string
	OrderID     string
	Quantity    int
	Description string
	Comments    string
}

// CustodyItem is equipment left in the provider's custody, listed on the
// report so the client can reclaim it.
type CustodyItem struct {
	ID          string
	OrderID     string
	Quantity    int
	Description string
	Comments    string
}

// EvidenceItem is immutable once inserted.
type EvidenceItem struct {
	ID        string
	OrderID   string
	FileRef   string
	Caption   string
	CreatedAt time.Time
}

type Identity struct {
	ID             string
	FullName       string
	Username       string
	IsEngineer     bool
	IsSalesContact bool
	IsAdmin        bool
	SignatureRef   string
	CreatedAt      time.Time
}

// OrderFilter narrows ListOrders. Zero values mean "no constraint".
type OrderFilter struct {
	Query    string
	Client   string
	Engineer string
	Status   string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
