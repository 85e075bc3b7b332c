/*
Package dsl provides the Go authoring API for speriment experiments.

Every constructor takes an explicit config struct and draws the new component's
identifier from the session the Builder is bound to. Errors are sticky: once the
session refuses an identifier, every later constructor is a no-op and Err reports
the first failure, so a whole tree can be written as one nested expression.

Example usage:

	package main

	import (
		"github.com/aretw0/speriment/pkg/domain"
		"github.com/aretw0/speriment/pkg/dsl"
		"github.com/aretw0/speriment/pkg/session"
	)

	func main() {
		s := session.Open(0)
		defer s.Close()

		b := dsl.New(s)
		yes := b.Option(dsl.OptionConfig{Text: "Yes", Correct: dsl.Correct(true)})
		no := b.Option(dsl.OptionConfig{Text: "No", Feedback: dsl.FeedbackText("Try again.")})

		practice := b.Block(dsl.BlockConfig{
			Pages: []*domain.Page{
				b.Page(dsl.PageConfig{Text: "Is the sky blue?", Options: []*domain.Option{yes, no}}),
			},
			Criterion: dsl.Streak(1),
		})

		exp := b.Experiment(dsl.ExperimentConfig{Blocks: []*domain.Block{practice}})
		if err := b.Err(); err != nil {
			// the session was closed
		}
		// ... pass exp to speriment.Compiler.Compile
	}
*/
package dsl
