/*
Package graph holds the mutable questionnaire graph edited by a builder session.

It owns the node and edge collections and keeps their invariants on every edit:

  - edges never reference missing nodes: Connect refuses unknown endpoints and
    RemoveNode drops touching edges in the same step;
  - option edges carry the current option text: UpdateNodeData and SetNodeData
    re-label "option-<i>" edges whenever options change;
  - node and edge ids are unique, including after Load.

ResolveConnection computes the label of a new edge from the source node and handle.
*/
package graph
