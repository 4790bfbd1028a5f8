package update

// Names of the update endpoint protocol, shared by the server and the client.
const (
	// ErrorHeader carries a diagnostic message on failed update checks.
	ErrorHeader = "X-Error"

	// Query parameter names of the update endpoint.
	ParamImage          = "image"
	ParamDevice         = "device"
	ParamCurrentVersion = "current_version"
)
