package quire_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/builder"
	"github.com/aretw0/quire/pkg/domain"
)

// ExampleStudio shows a template going from metadata to a saved scenario.
func ExampleStudio() {
	backend := memory.NewBackend(memory.WithIDGenerator(func() string { return "scn-1" }))
	studio := quire.NewStudio(backend, memory.NewDraftStore())

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

		intake, err := s.AddSection(ctx, domain.Position{})
		if err != nil {
			return err
		}
		intake.SetName("Intake")
		if err := intake.Save(); err != nil {
			return err
		}

		q, err := s.AddQuestion(ctx, domain.Position{Y: 120})
		if err != nil {
			return err
		}
		q.SetQuestion("Stroke alert activated?")
		if err := q.SetType(domain.QuestionYesNo); err != nil {
			return err
		}
		if err := q.Save(); err != nil {
			return err
		}

		_, err = s.Connect(ctx, intake.NodeID(), q.NodeID(), "")
		return err
	})
	if err != nil {
		log.Fatal(err)
	}

	res, err := studio.Save(ctx, sess.ID())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.ScenarioID, res.Created, res.Message)

	rec, _ := backend.GetScenarioByID(ctx, res.ScenarioID)
	fmt.Println(len(rec.Questionnaire.Nodes), "nodes,", len(rec.Questionnaire.Edges), "edge")
	// Output:
	// scn-1 true Scenario created successfully
	// 2 nodes, 1 edge
}
