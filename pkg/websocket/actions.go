package websocket

// Action constants for WebSocket messages
const (
	// Health
	ActionHealthCheck = "health.check"

	// Request actions (client -> server)
	ActionTaskList      = "task.list"
	ActionTaskGet       = "task.get"
	ActionAgentList     = "agent.list"
	ActionActivityList  = "activity.list"
	ActionExecutionList = "execution.list"

	// Subscription actions
	ActionTaskSubscribe   = "task.subscribe"
	ActionTaskUnsubscribe = "task.unsubscribe"

	// Notification actions (server -> client)
	ActionTaskStarted     = "task.started"
	ActionTaskOutput      = "task.output"
	ActionTaskCompleted   = "task.completed"
	ActionActivityCreated = "activity.created"
	ActionDocumentCreated = "document.created"
)

// Error codes
const (
	ErrorCodeBadRequest    = "BAD_REQUEST"
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeInternalError = "INTERNAL_ERROR"
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeUnknownAction = "UNKNOWN_ACTION"
)
