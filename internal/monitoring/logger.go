package monitoring

import "log"

// Logf is the package-level diagnostic logger used by the pipeline and the
// CLI. It defaults to log.Printf. The analysis core never logs; everything
// it reports goes back to its caller as values or errors.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil mutes it.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
