package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// LoginPath is the path of the login page.
	LoginPath = "/login"

	// ErrorTemplate renders failures the handlers did not render themselves.
	ErrorTemplate = "error"

	// RouterRootPath is the root of a route group.
	RouterRootPath = ""

	// LocalClient is the fiber.Locals key of the request's *backend.Client.
	LocalClient = "backendClient"

	// LocalOperator is the fiber.Locals key of the signed-in operator's mobile, used by the access log.
	LocalOperator = "operator"

	// LocalRequestID is the fiber.Locals key of the request id.
	LocalRequestID = "requestID"

	// ErrNilACDFatalLogMsg is used if app or env var pointer is nil.
	ErrNilACDFatalLogMsg = "app or env is nil"

	// ConfirmField is the form field a destructive action must carry as "yes".
	ConfirmField = "confirm"
)
