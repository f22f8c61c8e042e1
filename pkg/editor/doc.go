// Package editor implements the question and section editors of the builder.
//
// An editor works on a copy of one node's data, validates user input, and reports
// the result through Callbacks (OnUpdate / OnDelete) keyed by node id. The session
// that owns the graph implements Callbacks; editors hold no reference to the graph.
package editor
