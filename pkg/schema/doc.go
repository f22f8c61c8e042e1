// Package schema converts questionnaire graphs to and from their JSON document form.
//
// Export writes the {nodes, edges} document used both for manual backups and for the
// backend questionnaire payload. Import is all-or-nothing: the document must carry both
// top-level keys, decode cleanly, and pass Validate (unique ids, well-formed payloads,
// no dangling edges) before anything is returned.
//
// Validation failures are reported as *ValidationError values, grouped in an
// *AggregateError when there is more than one.
package schema
