package dto

// UsageSearchRequest asks for per-domain usage metrics over [From, To).
// Dates use the YYYY-MM-DD layout.
type UsageSearchRequest struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	DomainIDs []string `json:"domainIds"`
}

type DomainUsage struct {
	DomainID       string  `json:"domainId"`
	DomainName     string  `json:"domainName"`
	EmailVolume    int64   `json:"emailVolume"`
	SPFPassRatio   float64 `json:"spfPassRatio"`
	DMARCPassRatio float64 `json:"dmarcPassRatio"`
}
