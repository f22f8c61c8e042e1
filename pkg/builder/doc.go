/*
Package builder orchestrates a questionnaire editing session.

A Session owns one graph and moves through three phases:

	awaiting-metadata -> editing -> saving -> editing

Graph mutations are only accepted while editing. Save checks its
preconditions locally, then calls the ScenarioAPI once; a failed save leaves
the graph exactly as it was and returns the session to editing.

Editors returned by AddQuestion, AddSection, EditQuestion and EditSection call
back into the Session through the editor.Callbacks interface.
*/
package builder
