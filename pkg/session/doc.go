/*
Package session implements the identifier allocator of one compilation.

A Session issues unique, strictly increasing identifiers starting after a seed.
Every constructor of package dsl draws its identifier from a Session, so the ids of
one experiment never collide. A Session is acquired for exactly one compilation and
released when it ends; Scope guarantees the release on every exit path.

Sessions are independent values. Concurrent compilations must each open their own
Session; sharing one between goroutines that compile different experiments is a
caller error even though Next itself is safe to call concurrently.
*/
package session
