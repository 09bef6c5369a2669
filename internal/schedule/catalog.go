package schedule

// Provider is a member of the clinic's provider roster.
type Provider struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// DefaultProviders is the roster used when none is configured.
var DefaultProviders = []Provider{
	{Name: "Dr. Smith", Specialty: "Family Medicine"},
	{Name: "Dr. Johnson", Specialty: "Internal Medicine"},
	{Name: "Dr. Patel", Specialty: "Pediatrics"},
}

// SlotTimes is the working day split into 30-minute slots,
// Mon-Fri 8 AM-4 PM with the 12-1 lunch hour excluded.
var SlotTimes = []string{
	"8:00 AM", "8:30 AM", "9:00 AM", "9:30 AM",
	"10:00 AM", "10:30 AM", "11:00 AM", "11:30 AM",
	"1:00 PM", "1:30 PM", "2:00 PM", "2:30 PM",
	"3:00 PM", "3:30 PM", "4:00 PM",
}

// VisitTypes lists the appointment types the clinic offers.
var VisitTypes = []string{
	"New Patient",
	"Follow-Up",
	"Sick Visit / Urgent",
	"Annual Physical",
	"Lab Review",
	"Vaccination",
	"Telehealth",
}

// Catalog is the fixed, provider-agnostic set of bookable slots plus the
// provider roster and visit-type labels. It is read-only reference data.
type Catalog struct {
	slots      []string
	providers  []Provider
	visitTypes []string
	slotIndex  map[string]int
}

// NewCatalog builds a catalog with the default slots, roster, and visit types.
// providerNames, when non-empty, replaces the roster (specialties unknown).
func NewCatalog(providerNames []string) *Catalog {
	providers := DefaultProviders
	if len(providerNames) > 0 {
		providers = make([]Provider, 0, len(providerNames))
		for _, name := range providerNames {
			providers = append(providers, Provider{Name: name})
		}
	}

	idx := make(map[string]int, len(SlotTimes))
	for i, s := range SlotTimes {
		idx[s] = i
	}

	return &Catalog{
		slots:      SlotTimes,
		providers:  providers,
		visitTypes: VisitTypes,
		slotIndex:  idx,
	}
}

// Slots returns the ordered slot labels.
func (c *Catalog) Slots() []string {
	return c.slots
}

// Providers returns the roster.
func (c *Catalog) Providers() []Provider {
	return c.providers
}

// ProviderNames returns the roster names in order.
func (c *Catalog) ProviderNames() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name
	}
	return names
}

// VisitTypes returns the visit-type labels.
func (c *Catalog) VisitTypes() []string {
	return c.visitTypes
}

// SlotIndex returns the position of a slot label within the working day.
// Unknown labels sort after all known slots.
func (c *Catalog) SlotIndex(label string) int {
	if i, ok := c.slotIndex[label]; ok {
		return i
	}
	return len(c.slots)
}
