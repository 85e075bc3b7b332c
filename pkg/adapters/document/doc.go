/*
Package document reads authoring documents: an experiment written as YAML (or
JSON) instead of Go code.

The document mirrors the component tree. Components that others refer to carry
a `key`: blocks are named in `exchangeable` and `treatments`, pages and their
options in `run_if`.

	name: lexical
	banks:
	  words: {table: words.csv, column: word}
	blocks:
	  - key: intro
	    pages:
	      - key: consent
	        text: Do you agree?
	        options: [{key: agree, text: I agree}, {text: No}]
	  - run_if: {page: consent, option: agree}
	    pages:
	      - text: {sample_from: words}
	        options: [{text: word, correct: true, feedback: Right!}, {text: not a word}]

Fields that hold lists must be written as lists even when they hold a single
element; Parse reports anything else as a *domain.ContainerTypeError.
*/
package document
