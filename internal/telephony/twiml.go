package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// TwiML is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only include primitives we need at the adapter boundary.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlPlay struct {
	XMLName xml.Name `xml:"Play"`
	URL     string   `xml:",chardata"`
}

type twimlRecord struct {
	XMLName                       xml.Name `xml:"Record"`
	Timeout                       int      `xml:"timeout,attr"`
	MaxLength                     int      `xml:"maxLength,attr"`
	Transcribe                    bool     `xml:"transcribe,attr"`
	RecordingStatusCallback       string   `xml:"recordingStatusCallback,attr"`
	RecordingStatusCallbackMethod string   `xml:"recordingStatusCallbackMethod,attr"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

const (
	recordTimeoutSeconds   = 10
	recordMaxLengthSeconds = 300
)

// IntakeTwiML renders the answer document for an inbound complaint call:
// welcome message, beep, record with the status callback, and a fallback
// prompt played only when the caller never spoke.
func IntakeTwiML(hostURL, callbackPath string) (string, error) {
	hostURL = strings.TrimRight(strings.TrimSpace(hostURL), "/")
	if hostURL == "" {
		return "", errors.New("telephony: host url required")
	}
	if callbackPath == "" {
		return "", errors.New("telephony: recording callback path required")
	}

	r := twimlResponse{Verbs: []any{
		twimlPlay{URL: hostURL + "/audio/bienvenida.mp3"},
		twimlPlay{URL: hostURL + "/audio/beep.mp3"},
		twimlRecord{
			Timeout:                       recordTimeoutSeconds,
			MaxLength:                     recordMaxLengthSeconds,
			Transcribe:                    false,
			RecordingStatusCallback:       callbackPath,
			RecordingStatusCallbackMethod: "POST",
		},
		twimlPlay{URL: hostURL + "/audio/error-grabacion.mp3"},
	}}
	return renderTwiML(r)
}

// ErrorTwiML is the degraded answer when the intake document cannot be
// built: apologize and hang up instead of leaving the caller in silence.
func ErrorTwiML(hostURL string) string {
	hostURL = strings.TrimRight(strings.TrimSpace(hostURL), "/")
	r := twimlResponse{Verbs: []any{
		twimlPlay{URL: hostURL + "/audio/error-sistema.mp3"},
		twimlHangup{},
	}}
	out, err := renderTwiML(r)
	if err != nil {
		return xml.Header + "<Response><Hangup/></Response>"
	}
	return out
}

func renderTwiML(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
