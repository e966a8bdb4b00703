package gateway

import "encoding/json"

// Envelope is the normalized outcome of one dispatch: either a success
// payload or a failure message, never both.
type Envelope struct {
	OK      bool
	Payload any
	Message string
}

// Success wraps a backend payload.
func Success(payload any) Envelope {
	return Envelope{OK: true, Payload: payload}
}

// Failure wraps a failure message.
func Failure(message string) Envelope {
	return Envelope{Message: message}
}

// FailureFromError wraps err's message.
func FailureFromError(err error) Envelope {
	return Failure(err.Error())
}

// Body is what callers see: the payload itself, or {"error": message}.
func (e Envelope) Body() any {
	if e.OK {
		return e.Payload
	}
	return map[string]string{"error": e.Message}
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Body())
}
