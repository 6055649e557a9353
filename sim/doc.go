// Package sim provides the dining-philosophers simulation core.
//
// # Reading Guide
//
// Start with these files:
//   - fork.go: Fork, the mutually-exclusive resource, and its Lease
//   - philosopher.go: Philosopher state machine (idle → thinking → acquiring → eating)
//   - orchestrator.go: sequential and gated concurrent passes
//
// # Architecture
//
// A Table seats N philosophers around N forks; philosopher i uses forks i and
// (i+1) mod N. Deadlock is avoided by acquisition order alone (ParityOrder):
// even seats take left then right, odd seats right then left.
//
// An AdmissionGate bounds how many philosophers are active at once. The gate
// is a plain counting semaphore; waiters are not served in FIFO order.
//
// Every fork and gate slot is handed out as a handle (Lease, Slot) whose
// release is idempotent and deferred, so cancelled or failed philosophers
// never leave a fork or slot held.
//
// Sub-packages:
//   - sim/trace/: concurrent event trace and its replay summary
//   - sim/report/: JSON result file
//
// # Key Interfaces
//   - AdmissionGate: Enter/Capacity/Admitted/Peak
//   - AcquisitionOrder: which fork a philosopher takes first
//   - Observer: receives trace events
//
// Delays run on an injectable github.com/benbjohnson/clock.Clock so tests can
// use a mock clock or zero delays.
package sim
