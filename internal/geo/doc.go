// Package geo resolves a capital city to a single latitude/longitude pair
// through a Nominatim-compatible geocoding endpoint.
package geo
