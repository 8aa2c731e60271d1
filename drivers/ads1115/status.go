package ads1115

import "ads1115-go/errcode"

// Status is the result of every fallible driver operation.
// Msg is always a static string; Detail carries a transport-specific
// value (bus error number, byte count) or 0.
type Status struct {
	Code   errcode.Code
	Detail int32
	Msg    string
}

// Ok returns the success status.
func Ok() Status { return Status{Code: errcode.OK} }

// Fail returns a status with the given code and message.
func Fail(c errcode.Code, msg string, detail int32) Status {
	return Status{Code: c, Detail: detail, Msg: msg}
}

func (s Status) OK() bool         { return s.Code == errcode.OK }
func (s Status) InProgress() bool { return s.Code == errcode.InProgress }

// Err returns nil on success and an *errcode.E otherwise.
func (s Status) Err() error {
	if s.OK() {
		return nil
	}
	return &errcode.E{C: s.Code, Msg: s.Msg}
}

func (s Status) String() string {
	if s.Msg == "" {
		return string(s.Code)
	}
	return string(s.Code) + ": " + s.Msg
}

var (
	stNotInitialized = Fail(errcode.NotInitialized, "Driver not initialized", 0)
	stNotReady       = Fail(errcode.NotReady, "Conversion not ready", 0)
	stStarted        = Fail(errcode.InProgress, "Conversion started", 0)
)
