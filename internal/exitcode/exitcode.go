// Package exitcode defines the daemon's stable process exit codes as a
// small named-int enumeration.
package exitcode

// Code is a process exit status thermod can return.
type Code int

const (
	Success                  Code = 0
	ConfigError              Code = 1
	TimetableNotFound        Code = 2
	TimetableUnreadable      Code = 3
	TimetableInvalidSyntax   Code = 4
	TimetableInvalidContent  Code = 5
	HeatingActuatorInitError Code = 6
	CoolingActuatorInitError Code = 7
	ThermometerInitError     Code = 8
	ControlSocketInitError   Code = 9
	RuntimeError             Code = 10
	ShutdownError            Code = 11
	KeyboardInterrupt        Code = 130
)

// Int returns the code as a plain int, the type os.Exit accepts.
func (c Code) Int() int { return int(c) }
