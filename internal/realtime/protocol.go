package realtime

// Topics a client can subscribe to. The key is a project id for
// TopicProjectTasks and TopicChat, a task id for TopicComments and unused
// otherwise.
const (
	TopicProjects     = "projects"
	TopicProjectTasks = "project_tasks"
	TopicMyTasks      = "my_tasks"
	TopicComments     = "comments"
	TopicChat         = "chat"
)

const (
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
)

const (
	FrameSnapshot = "snapshot"
	FrameNotice   = "notice"
	FrameError    = "error"
)

// ClientFrame is sent by the browser.
type ClientFrame struct {
	Op    string `json:"op"`
	ID    string `json:"id"`
	Topic string `json:"topic,omitempty"`
	Key   string `json:"key,omitempty"`
}

// ServerFrame is pushed to the browser.
type ServerFrame struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
