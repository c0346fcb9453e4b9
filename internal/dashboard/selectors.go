package dashboard

// Dashboard URL and DOM selectors.
// These are isolated here because the dashboard's markup and copy change
// independently of this tool. Update these when verification breaks.

// DefaultURL is the local dev server route of the new dashboard.
const DefaultURL = "http://localhost:8080/new-dashboard"

const (
	// Filter bar, present once the page has mounted
	Filters = `[data-testid="dashboard-filters"]`

	// Opens the period shortcuts
	DateRangePicker = `[data-testid="date-range-picker"]`

	// Gross revenue card, rendered after transactions load for the period
	KPIFaturamentoBruto = `[data-testid="kpi-faturamentoBruto"]`
)

// LastThirtyDaysLabel is the visible text of the 30-day period shortcut.
// It is locale-specific (pt-BR) and matched case-insensitively.
const LastThirtyDaysLabel = "Últimos 30 dias"

// DefaultOutput is where the screenshot lands, relative to the working directory.
const DefaultOutput = "jules-scratch/verification/verification.png"
