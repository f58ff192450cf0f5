package logs

import (
	"log"
	"os"
)

var IsDebugMode = DebugEnabled(os.Getenv("DEBUG"))

// DebugEnabled treats any value other than empty, "0" or "false" as on.
func DebugEnabled(v string) bool {
	return v != "" && v != "0" && v != "false"
}

func ShowLogs(msg string) {
	if IsDebugMode {
		log.Println(msg)
	}
}

// Printf always writes to the process log.
func Printf(format string, args ...any) {
	log.Printf(format, args...)
}
