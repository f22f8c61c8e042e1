/*
Package domain contains the core models of the questionnaire builder.

It defines the questionnaire graph (Nodes, Edges, output handles), the template
metadata and scenario records exchanged with the backend, and the lifecycle events
emitted while a questionnaire is edited. The package is pure: it performs no I/O.

# Key Entities

  - Node: a question or section vertex. Its Data is a closed sum type
    (QuestionData | SectionData) selected by the node Type.
  - Edge: a directed transition keyed by the source handle ("option-<i>", "yes",
    "no", "text-output", "multi-all"), carrying a copy of its branch label.
  - Questionnaire: the {nodes, edges} document persisted inside a scenario.
  - Draft: the recoverable snapshot of an in-progress builder session.
*/
package domain
