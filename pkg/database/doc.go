/*
Package database provides the MariaDB client used by the reconciler and
maintenance operations.

It wraps database/sql with the go-sql-driver/mysql driver and adds the
three things the raw handle lacks for this tool:

  - Statement timeouts. Every statement runs under a context deadline;
    table operations (OPTIMIZE, REPAIR) that can block for a long time
    take an explicit caller-chosen bound.

  - Error classification. Failures are wrapped in *Error with a Kind
    that decides the control flow upstream: connection errors abort the
    session, permission and operation errors fail only their item, and
    validation errors downgrade to warnings. Retryable() distinguishes
    transient connection loss from errors that will fail identically on
    retry.

  - Identifier validation. Values always travel as query parameters
    (interpolated client-side so DDL can carry them too), and
    identifiers, which cannot be parameterized, pass an allow-list
    before being quoted. No raw string ever reaches SQL text.
*/
package database
