// Package core reconciles an FCTC exam export against a Roll Call roster.
//
// This package holds all domain logic independent of any transport or file
// format. Web handlers and the CLI feed it [RawTable] values and consume its
// [Report].
//
// # Pipeline
//
// Data flows one way through these stages:
//
//  1. [DetectHeader] re-heads sheets whose titles are not on the first row
//  2. [ResolveColumns] maps headers onto the fields of a [Schema]
//  3. [ExtractExam] and [ExtractRoster] build records, normalizing PRNs with
//     [NormalizeIdentifier] and scores with [ParseScore]
//  4. [ReduceAttempts] keeps the best attempt per PRN
//  5. [Reconcile] derives attendance and scores for every roster student
//  6. [Partition] splits the master table by division
//
// [Engine] runs the whole pipeline. It keeps no state between runs, so one
// engine may serve concurrent requests.
//
// # Schemas
//
// Accepted header spellings live in schemas.yaml, embedded at build time.
// Deployments can replace it with [LoadSchemaFile].
//
// # Service
//
// [Service] wraps the engine with upload validation, a concurrency limit,
// workbook I/O through [TableReader] and [ReportWriter], run history
// through [RunStore], and a retention sweeper for generated reports.
//
// # Error Handling
//
// Engine failures are typed ([SchemaError], [NoValidIdentifiersError],
// [EmptyRosterError], [HeaderNotFoundError] and the invariant errors) and
// are mapped to user-facing codes by [MapError]:
//
//   - SCH001-SCH003: sheet layout problems
//   - REC001-REC003: reconciliation failures
//   - FILE001-FILE007: upload problems
//   - RUN001-RUN005: capacity, cancellation and output failures
package core
