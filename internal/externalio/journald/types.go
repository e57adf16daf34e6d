package journald

import "net/http"

type OutModule struct {
	sink *http.Client
	url  string
}
