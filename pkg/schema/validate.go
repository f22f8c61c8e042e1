package schema

import (
	"errors"
	"fmt"

	"github.com/aretw0/quire/pkg/domain"
)

// Validate checks the structural integrity of a questionnaire document:
// known node types, payload shape, unique ids and no dangling edges.
// All failures are reported together.
func Validate(doc *domain.Questionnaire) error {
	if doc == nil {
		return Invalid("questionnaire", "required", nil)
	}

	var errs []error
	nodeIDs := make(map[string]struct{}, len(doc.Nodes))

	for i, n := range doc.Nodes {
		key := fmt.Sprintf("nodes[%d]", i)
		if n.ID == "" {
			errs = append(errs, Invalid(key+".id", "required", nil))
		} else if _, dup := nodeIDs[n.ID]; dup {
			errs = append(errs, Invalid(key+".id", "duplicate node id", n.ID))
		} else {
			nodeIDs[n.ID] = struct{}{}
		}

		if err := domain.CheckData(n.Type, n.Data); err != nil {
			errs = append(errs, Invalid(key+".data", reason(err), nil))
		}
	}

	edgeIDs := make(map[string]struct{}, len(doc.Edges))
	for i, e := range doc.Edges {
		key := fmt.Sprintf("edges[%d]", i)
		if e.ID == "" {
			errs = append(errs, Invalid(key+".id", "required", nil))
		} else if _, dup := edgeIDs[e.ID]; dup {
			errs = append(errs, Invalid(key+".id", "duplicate edge id", e.ID))
		} else {
			edgeIDs[e.ID] = struct{}{}
		}

		if _, ok := nodeIDs[e.Source]; !ok {
			errs = append(errs, Invalid(key+".source", "references unknown node", e.Source))
		}
		if _, ok := nodeIDs[e.Target]; !ok {
			errs = append(errs, Invalid(key+".target", "references unknown node", e.Target))
		}
	}

	return Aggregate(errs)
}

func reason(err error) string {
	if errors.Is(err, domain.ErrInvalidNodeData) {
		// Strip the sentinel prefix, keep the detail.
		msg := err.Error()
		prefix := domain.ErrInvalidNodeData.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
		return msg
	}
	return err.Error()
}
