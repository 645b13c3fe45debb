package epsonscan

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Literal lines printed by `epsonscan2 -l`.
const (
	DeviceNotFoundLine = "Device is not found..."
	DeviceListHeader   = "=== List of available devices =="
)

var (
	deviceIDPattern = regexp.MustCompile(`device ID :(.*)`)
	modelIDPattern  = regexp.MustCompile(`ModelID:(.*)`)
)

var (
	// ErrDeviceListParse reports device list output that could not be parsed.
	ErrDeviceListParse = errors.New("malformed device list")
	// ErrUnrecognizedOutput narrows ErrDeviceListParse to output whose first
	// line is neither known marker.
	ErrUnrecognizedOutput = errors.New("unrecognized device list output")
)

// Scanner is one device reported by epsonscan2.
type Scanner struct {
	ID    string `json:"id"`
	Model string `json:"model"`
}

// ParseError describes where device list parsing failed.
type ParseError struct {
	Line   int // 1-based line number in the output
	Text   string
	Reason error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse device list line %d %q: %v", e.Line, e.Text, e.Reason)
	}
	return fmt.Sprintf("parse device list: %v", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Reason
}

// ParseDeviceList converts `epsonscan2 -l` output into scanners. It never
// returns a partial list: any malformed pair fails the whole parse.
func ParseDeviceList(output string) ([]Scanner, error) {
	lines := splitLines(output)
	if len(lines) == 0 {
		return nil, &ParseError{Reason: fmt.Errorf("%w: %w: empty output", ErrDeviceListParse, ErrUnrecognizedOutput)}
	}

	switch lines[0] {
	case DeviceNotFoundLine:
		return []Scanner{}, nil
	case DeviceListHeader:
	default:
		return nil, &ParseError{Line: 1, Text: lines[0], Reason: fmt.Errorf("%w: %w", ErrDeviceListParse, ErrUnrecognizedOutput)}
	}

	body := lines[1:]
	if len(body)%2 != 0 {
		last := len(lines)
		return nil, &ParseError{Line: last, Text: lines[last-1], Reason: fmt.Errorf("%w: device ID without ModelID", ErrDeviceListParse)}
	}

	scanners := make([]Scanner, 0, len(body)/2)
	for i := 0; i < len(body); i += 2 {
		idLine, modelLine := body[i], body[i+1]
		id := deviceIDPattern.FindStringSubmatch(idLine)
		if id == nil {
			return nil, &ParseError{Line: i + 2, Text: idLine, Reason: fmt.Errorf("%w: expected device ID", ErrDeviceListParse)}
		}
		if id[1] == "" {
			return nil, &ParseError{Line: i + 2, Text: idLine, Reason: fmt.Errorf("%w: empty device ID", ErrDeviceListParse)}
		}
		model := modelIDPattern.FindStringSubmatch(modelLine)
		if model == nil {
			return nil, &ParseError{Line: i + 3, Text: modelLine, Reason: fmt.Errorf("%w: expected ModelID", ErrDeviceListParse)}
		}
		scanners = append(scanners, Scanner{ID: id[1], Model: model[1]})
	}
	return scanners, nil
}

func splitLines(output string) []string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil
	}
	lines := strings.Split(trimmed, "\n")
	for i, line := range lines {
		lines[i] = trimCR(line)
	}
	return lines
}
