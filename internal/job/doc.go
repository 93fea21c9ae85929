// Package job records variant generation runs as jobs.
//
// Service wraps one run with its status bookkeeping: a job moves from
// PENDING to RUNNING and ends as SUCCESS or FAILURE with a message. Runner
// executes pending jobs in the background for the serve command.
package job
