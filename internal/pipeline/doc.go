// Package pipeline drives a run: it reads the input rows in order, enriches
// each record and streams the results into a JSON array on disk.
//
// The array on disk is kept well-formed whatever happens to individual rows.
// A separator is written before every element except the first one that is
// emitted, and the closing bracket is written on every exit path once the
// output file was created, including fatal errors and cancellation.
package pipeline
