// Package geoip answers IP geolocation lookups from a local MaxMind database.
package geoip

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/oschwald/geoip2-golang"
)

// Location is the projection of a city-level lookup result exposed over the
// API. Coordinates holds latitude then longitude.
type Location struct {
	City        string    `json:"city"`
	Continent   string    `json:"continent"`
	Coordinates []float64 `json:"coordinates"`
	Country     string    `json:"country"`
	PostalCode  string    `json:"postalCode"`
	TimeZone    string    `json:"timeZone"`
}

// Resolver looks up the location of a public IP address. A nil result with a
// nil error means the address is unknown to the database.
type Resolver interface {
	Lookup(addr netip.Addr) (*Location, error)
}

// Database is a Resolver backed by a GeoLite2 / GeoIP2 city database file.
type Database struct {
	reader *geoip2.Reader
}

// Open opens the database at path.
func Open(path string) (*Database, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening geoip database: %w", err)
	}
	return &Database{reader: reader}, nil
}

// Close releases the underlying reader.
func (d *Database) Close() error {
	return d.reader.Close()
}

// Lookup implements Resolver.
func (d *Database) Lookup(addr netip.Addr) (*Location, error) {
	record, err := d.reader.City(net.IP(addr.AsSlice()))
	if err != nil {
		return nil, fmt.Errorf("geoip lookup: %w", err)
	}
	if record == nil || (record.Country.IsoCode == "" && record.City.GeoNameID == 0) {
		return nil, nil
	}
	return &Location{
		City:        record.City.Names["en"],
		Continent:   record.Continent.Names["en"],
		Coordinates: []float64{record.Location.Latitude, record.Location.Longitude},
		Country:     record.Country.Names["en"],
		PostalCode:  record.Postal.Code,
		TimeZone:    record.Location.TimeZone,
	}, nil
}

// IsRoutable reports whether an address is eligible for lookup. Private,
// loopback, link-local and unspecified addresses are not.
func IsRoutable(addr netip.Addr) bool {
	return !(addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() || addr.IsUnspecified())
}
