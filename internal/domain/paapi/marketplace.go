package paapi

import (
	"fmt"
	"sort"
)

// DefaultMarketplace is used when credentials do not name a marketplace.
const DefaultMarketplace = "www.amazon.com"

// Marketplace describes where requests for one Amazon storefront are sent.
type Marketplace struct {
	// Name is the storefront host, e.g. "www.amazon.co.uk".
	Name string
	// Host is the PAAPI endpoint host.
	Host string
	// Region is the signing region for Host.
	Region string
}

var marketplaces = map[string]Marketplace{
	"www.amazon.com.au": {Host: "webservices.amazon.com.au", Region: "us-west-2"},
	"www.amazon.com.br": {Host: "webservices.amazon.com.br", Region: "us-east-1"},
	"www.amazon.ca":     {Host: "webservices.amazon.ca", Region: "us-east-1"},
	"www.amazon.fr":     {Host: "webservices.amazon.fr", Region: "eu-west-1"},
	"www.amazon.de":     {Host: "webservices.amazon.de", Region: "eu-west-1"},
	"www.amazon.in":     {Host: "webservices.amazon.in", Region: "eu-west-1"},
	"www.amazon.it":     {Host: "webservices.amazon.it", Region: "eu-west-1"},
	"www.amazon.co.jp":  {Host: "webservices.amazon.co.jp", Region: "us-west-2"},
	"www.amazon.com.mx": {Host: "webservices.amazon.com.mx", Region: "us-east-1"},
	"www.amazon.nl":     {Host: "webservices.amazon.nl", Region: "eu-west-1"},
	"www.amazon.sg":     {Host: "webservices.amazon.sg", Region: "us-west-2"},
	"www.amazon.es":     {Host: "webservices.amazon.es", Region: "eu-west-1"},
	"www.amazon.se":     {Host: "webservices.amazon.se", Region: "eu-west-1"},
	"www.amazon.com.tr": {Host: "webservices.amazon.com.tr", Region: "eu-west-1"},
	"www.amazon.ae":     {Host: "webservices.amazon.ae", Region: "eu-west-1"},
	"www.amazon.co.uk":  {Host: "webservices.amazon.co.uk", Region: "eu-west-1"},
	"www.amazon.com":    {Host: "webservices.amazon.com", Region: "us-east-1"},
}

// LookupMarketplace returns the endpoint for a storefront host.
func LookupMarketplace(name string) (Marketplace, error) {
	m, ok := marketplaces[name]
	if !ok {
		return Marketplace{}, fmt.Errorf("%w: %q", ErrUnknownMarketplace, name)
	}
	m.Name = name
	return m, nil
}

// MarketplaceNames returns every supported storefront host, sorted.
func MarketplaceNames() []string {
	names := make([]string, 0, len(marketplaces))
	for name := range marketplaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
