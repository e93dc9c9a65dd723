// Package testutil ties test components to the testing lifecycle.
//
// A TestComponent is a component.Component that can also Reset, Snapshot
// and Restore its state. The fake hypermedia API in testutil/apiserver is
// the main implementation:
//
//	srv, _ := apiserver.New(apiserver.Config{})
//	testutil.T(t).Setup(srv)
//	snap := testutil.T(t).Snapshot(srv)
//	// ... mutate ...
//	testutil.T(t).Restore(srv, snap)
//
// CaptureLogger returns a JSON logger backed by a buffer so tests can
// assert on the request/response audit trail.
package testutil
