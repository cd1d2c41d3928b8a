// Package query runs SQL against a named or literal source and exposes the
// result as a row stream or a table.
//
// A Query is built once from a SQL source (literal text, a file, or a
// string that is read as a file when it ends in ".sql") and a source
// binding. Every data-producing call opens its own connection, runs the
// script's statements in order, releases each statement handle before the
// next one runs, and closes the connection before returning. Nothing is
// pooled or reused between calls.
//
// Multi-statement scripts are split on ";\n". How parameters and Each
// behave across statements is controlled by Policy:
//
//	PolicyCompat   params bind to the last statement only; successive Each
//	               calls step through the statements one at a time, each
//	               call first re-running the statements before its own
//	PolicyUniform  params bind to every statement; one Each call streams
//	               every statement's rows
//
// Result and ToTable always return the last statement's rows, or a nil
// table when the last statement produces no row set.
//
// Connection and execution failures are returned as *RunError, whose RunID
// matches the run_id attribute on that execution's log lines.
package query
