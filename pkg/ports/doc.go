/*
Package ports defines the driven ports (interfaces) of the speriment compiler.

These interfaces decouple the CLI and the HTTP service from where compiled
artifacts end up, so the same pipeline can write to a directory of host
scripts, to Redis or to memory.

# Key Interfaces

  - ArtifactStore: persists compiled artifacts under a JavaScript variable name.
*/
package ports
