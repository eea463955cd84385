// Package lifecycle brings the server from process start to serving traffic.
//
// The Orchestrator runs a fixed sequence of stages:
//
//	Idle → SecuringTransportHeaders → ConfiguringValidation →
//	ConnectingDatastore → RegisteringRoutes → BindingTransport → Serving
//
// Any stage may move it to Failed, in which case Run returns a
// *StartupFault and nothing is served. The datastore stage is skipped when
// no database is configured.
//
// Faults after startup are owned by the Supervisor. In the development
// profile they end Run with a *RuntimeFault; in every other profile they are
// reported and the server keeps running, leaving the faulting code path in
// whatever state it reached.
package lifecycle
