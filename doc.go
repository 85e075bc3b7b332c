/*
Package speriment compiles psychological experiments into the JSON artifact played
by the speriment runtime.

An author describes an experiment as a nested tree of blocks, items, pages and
options. The compiler checks the tree, expands it (feedback becomes pages of its
own, treatments become permutation guards) and emits one schema-valid artifact.
Displaying pages, sampling from banks, choosing Latin square rows and repeating
blocks until a criterion is met are left to the runtime; the artifact only
describes them.

# Sessions

Every component gets its identifier from a session.Session. A session belongs to
exactly one compilation: open it, build the tree, compile, close it. Build does
all of that and closes the session even when authoring fails. Concurrent
compilations need their own sessions.

# Usage

	package main

	import (
		"fmt"
		"log"

		"github.com/aretw0/speriment"
		"github.com/aretw0/speriment/pkg/domain"
		"github.com/aretw0/speriment/pkg/dsl"
	)

	func main() {
		art, err := speriment.Build(0, func(b *dsl.Builder) (*domain.Experiment, error) {
			yes := b.Option(dsl.OptionConfig{Text: "Yes", Correct: dsl.Correct(true)})
			no := b.Option(dsl.OptionConfig{Text: "No", Correct: dsl.Correct(false), Feedback: dsl.FeedbackText("Look again.")})
			q := b.Page(dsl.PageConfig{Text: "Is the sky blue?", Options: []*domain.Option{yes, no}})
			return b.Experiment(dsl.ExperimentConfig{
				Blocks: []*domain.Block{b.Block(dsl.BlockConfig{Pages: []*domain.Page{q}})},
			}), nil
		})
		if err != nil {
			log.Fatal(err)
		}

		script, _ := art.Script("experiment")
		fmt.Println(string(script))
	}

# Errors

Failures are typed: *domain.NoActiveSessionError, *domain.StructuralError for a
violated structural rule, *domain.SchemaViolationError when the encoded artifact
does not match the schema, and *domain.ContainerTypeError from the document
adapter. A compilation returns one complete artifact or an error, never both.
*/
package speriment
