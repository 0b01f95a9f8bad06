package wsmodels

type MessageCode string

const (
	CodeRequestChanged MessageCode = "request_changed"
	CodeNotification   MessageCode = "notification"
)

type ServerMessage struct {
	ToUserID string      `json:"-"`
	Time     string      `json:"time"` // event time, RFC3339
	Code     MessageCode `json:"code"`
	Msg      string      `json:"msg"`
	Data     any         `json:"data,omitempty"`
}
