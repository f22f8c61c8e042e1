/*
Package dsl provides a fluent Go builder for questionnaires.

Nodes are declared under local names and wired by name; Build assigns the
numeric ids, resolves branch labels the same way the editor does and returns a
document ready for schema.Export or a builder session import.

Example usage:

	b := dsl.New("ER triage")

	b.Section("intake", "Intake").Weight(2).Go("arrival")

	b.Question("arrival", "Mode of arrival?").
		Radio("Ambulance", "Walk-in").
		Required().
		Branch("Ambulance", "stroke").
		Branch("Walk-in", "notes")

	b.Question("stroke", "Stroke alert activated?").YesNo().Yes("notes")

	b.Question("notes", "Anything else?")

	doc, err := b.Build()
*/
package dsl
