package epsonscan

import "strconv"

// Native epsonscan2 exit codes.
const (
	CodeNoError           = 0
	CodeNoInputPaper      = 14  // load the originals in the ADF
	CodeUnableToSave      = 102 // undocumented by the vendor
	CodeNoDisplayDetected = 134 // aborts without X; fine when headless
)

var codeDescriptions = map[int]string{
	CodeNoError:           "no error",
	CodeNoInputPaper:      "no input paper",
	CodeUnableToSave:      "unable to save",
	CodeNoDisplayDetected: "no display detected",
}

// installedCodes are the probe exit codes that still mean epsonscan2 works.
var installedCodes = []int{CodeNoError, CodeNoDisplayDetected}

// IsInstalledExitCode reports whether a bare epsonscan2 run exiting with code
// indicates a usable installation.
func IsInstalledExitCode(code int) bool {
	for _, c := range installedCodes {
		if c == code {
			return true
		}
	}
	return false
}

// DescribeCode returns the known meaning of a native exit code.
func DescribeCode(code int) (string, bool) {
	desc, ok := codeDescriptions[code]
	return desc, ok
}

func codeLabel(code int) string {
	if desc, ok := DescribeCode(code); ok {
		return desc
	}
	return "code " + strconv.Itoa(code)
}
