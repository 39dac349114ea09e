// Package country holds the country/capital record that flows through the
// enrichment pipeline and the reader that parses it from the reference CSV.
package country
