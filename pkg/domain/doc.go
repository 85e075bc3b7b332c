/*
Package domain contains the component model of an experiment and the error taxonomy of the compiler.

An experiment is a tree: an Experiment holds Blocks, a Block holds exactly one kind of content
(Pages, groups of Pages, sub-Blocks or Items), a Page holds Options, and Options and Pages may
carry Feedback. Every id-bearing entity implements Component, a closed interface, so passes over
the tree switch on the concrete variant instead of probing fields.

This package is kept free of I/O and of identifier allocation. Identifiers are issued by a
session (see package session) and handed to the constructors in package dsl.

# Key Entities

  - Option: one answer choice on a Page.
  - Page: one screen, with its options, resources and feedback.
  - Item: a unit of display made of one or more Pages sharing a condition label.
  - Block: a grouping and control node carrying counterbalancing descriptors.
  - Experiment: the root of the tree.
  - RunCondition: a guard telling the runtime when a block or page may run.
*/
package domain
