package model

// Category is static reference data seeded at initialization.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// Category domains, doubling as feedback item domains.
const (
	DomainLostFound   = "lost_found"
	DomainMarketplace = "marketplace"
)

// ValidDomain reports whether d names one of the two item domains.
func ValidDomain(d string) bool {
	return d == DomainLostFound || d == DomainMarketplace
}
