package core

import "fmt"

// debugLog gates protocol tracing. Constant so the calls fold away in
// normal builds; flip to true when chasing an ownership bug.
const debugLog = false

func dlog(format string, args ...any) {
	if debugLog {
		fmt.Printf("weft: "+format+"\n", args...)
	}
}
