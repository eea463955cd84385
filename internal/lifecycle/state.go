package lifecycle

// State is a stage of the startup sequence.
type State int

const (
	Idle State = iota
	SecuringTransportHeaders
	ConfiguringValidation
	ConnectingDatastore
	RegisteringRoutes
	// BindingTransport opens the listener; Serving follows once it is bound.
	BindingTransport
	Serving
	Failed
	// Stopped is entered after a graceful shutdown.
	Stopped
)

var stateNames = [...]string{
	Idle:                     "idle",
	SecuringTransportHeaders: "securing_transport_headers",
	ConfiguringValidation:    "configuring_validation",
	ConnectingDatastore:      "connecting_datastore",
	RegisteringRoutes:        "registering_routes",
	BindingTransport:         "binding_transport",
	Serving:                  "serving",
	Failed:                   "failed",
	Stopped:                  "stopped",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
