// Package service implements the IO prescription step.
//
// Overview
// A Prescription runs exactly one stage, selected by the stage input:
//
//	IO        download prescription.sh, run it, publish result.json as step outputs
//	WORKFLOW  run prescription.sh to generate the manifest, then run the
//	          workflow engine client and print the breaker status
//
// Before the stage, when no token is given for the local IO server, an
// ephemeral token is created through the server identity endpoints.
//
// Every step reports an Outcome. The stage decides what a failed Outcome
// means:
//   - IO: the failure is reported and the stage continues with result.json
//   - WORKFLOW: a failed prescription skips the workflow engine client
//   - reading wf-output.json never fails the step
//
// A missing or malformed result.json is returned as an error, the caller
// reports it and fails the step.
//
// Runner is a thin wrapper around os/exec:
//   - runs the process in the step working directory and waits for it
//   - captures stdout and copies it to the step log
//   - optionally passes stderr lines to a callback
//   - returns the exit code, -1 when the process could not run
//
// Invariants:
//   - Everything runs sequentially, nothing runs in background.
//   - Transient files of a stage are removed when the stage ends, whatever
//     the outcome. Removal errors are ignored.
//   - prescription.sh outlives the IO stage, so WORKFLOW can reuse it.
package service
