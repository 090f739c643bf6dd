// Package errors wraps failures with the message and HTTP status code the
// admin API and postback endpoint answer with. handlers.PrepareError unwraps
// the ResponseCodeError; anything else degrades to a plain 500.
package errors

// ResponseCodeError keeps the cause for logs and errors.Is checks while the
// msg/code pair drives the JSON error response.
type ResponseCodeError struct {
	err  error
	msg  string
	code int
}

func New(err error, msg string) error {
	return ResponseCodeError{err: err, msg: msg, code: 500}
}
func NewWithCode(err error, msg string, code int) error {
	return ResponseCodeError{err: err, msg: msg, code: code}
}
func (rce ResponseCodeError) Error() string {
	return rce.err.Error()
}
func (rce ResponseCodeError) Msg() string {
	return rce.msg
}
func (rce ResponseCodeError) Code() int {
	return rce.code
}
func (rce ResponseCodeError) Unwrap() error {
	return rce.err
}
