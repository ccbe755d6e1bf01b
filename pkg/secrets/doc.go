/*
Package secrets generates credential values and distributes them across
the stack's config files.

Each logical credential (a database password, an API secret, a bearer
token) is registered with a unique literal marker and the set of
(file, key) locations that must end up holding the identical value.
Values are either operator-provided or generated from an alphanumeric
alphabet with crypto/rand.

Substitution is a single left-to-right pass keyed by exact marker
identity (see ReplaceMarkers), so a marker that is a substring of
another can never produce a partial, corrupted replacement. Every
(credential, file) pair yields a ReplaceReport; an expected marker that
is not found is surfaced as a warning rather than silently skipped,
since that usually means the file was already templated by hand.
*/
package secrets
