package lifecycle

const (
	ReadyMessage    string = "READY=1"
	StoppingMessage string = "STOPPING=1"
	EnvNotifySocket string = "NOTIFY_SOCKET"
)
