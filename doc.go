/*
Package quire builds branching questionnaires and saves them as scenarios.

A questionnaire is a directed graph of question and section nodes. Edges are
branches labeled with the answer that takes them. Editing happens in a
builder.Session that moves through three phases: awaiting metadata, editing and
saving. The Studio owns the sessions, serializes access to each of them and
writes a draft after every change.

# Usage

	studio := quire.NewStudio(memory.NewBackend(), memory.NewDraftStore())

	ctx := context.Background()
	sess, err := studio.NewSession(ctx)
	if err != nil {
		log.Fatal(err)
	}

	err = studio.Do(ctx, sess.ID(), func(ctx context.Context, s *builder.Session) error {
		if err := s.SubmitMetadata(domain.TemplateMetadata{
			Name:       "ER triage",
			Facilities: []string{"Hospital"},
			Services:   []string{"Emergency"},
		}); err != nil {
			return err
		}
		q, err := s.AddQuestion(ctx, domain.Position{})
		if err != nil {
			return err
		}
		q.SetQuestion("Mode of arrival?")
		return q.Save()
	})

	res, err := studio.Save(ctx, sess.ID())

# Adapters

Scenario backends implement ports.ScenarioAPI: GraphQL over HTTP, PostgreSQL
and in memory. Drafts implement ports.DraftStore: memory, file and Redis, with
optional AES-GCM encryption. The HTTP and MCP adapters expose a Studio to
remote clients.
*/
package quire
