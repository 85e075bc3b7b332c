// Package compiler turns a validated experiment into its artifact.
//
// Expand rewrites a copy of the tree into its final form: feedback becomes pages,
// treatments become permutation guards, and defaults the runtime relies on are
// filled in. Encode renames the expanded tree to the wire convention, passes it
// through the schema gate and serializes it.
package compiler
