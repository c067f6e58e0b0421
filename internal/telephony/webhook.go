package telephony

import (
	"net/http"
	"strconv"
	"strings"

	"complaint-hotline/internal/ingest"
)

// RecordingStatusForm captures the subset of recording-status webhook
// fields we care about. Twilio sends application/x-www-form-urlencoded.
//
// Not every delivery carries recording data; call-progress events arrive
// on the same endpoint with most of these fields empty.
type RecordingStatusForm struct {
	CallSid           string
	RecordingSid      string
	RecordingURL      string
	RecordingStatus   string
	From              string
	RecordingDuration string
}

func ParseRecordingStatus(r *http.Request) (RecordingStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return RecordingStatusForm{}, err
	}
	return RecordingStatusForm{
		CallSid:           r.PostFormValue("CallSid"),
		RecordingSid:      r.PostFormValue("RecordingSid"),
		RecordingURL:      r.PostFormValue("RecordingUrl"),
		RecordingStatus:   r.PostFormValue("RecordingStatus"),
		From:              strings.TrimSpace(r.PostFormValue("From")),
		RecordingDuration: r.PostFormValue("RecordingDuration"),
	}, nil
}

// Ingestable reports whether this delivery should start the pipeline:
// the recording finished and both its id and URL are present.
func (f RecordingStatusForm) Ingestable() bool {
	return f.RecordingStatus == "completed" && f.RecordingSid != "" && f.RecordingURL != ""
}

func (f RecordingStatusForm) ToRecordingEvent() ingest.RecordingEvent {
	duration, _ := strconv.Atoi(f.RecordingDuration)
	return ingest.RecordingEvent{
		CallSid:         f.CallSid,
		RecordingSid:    f.RecordingSid,
		RecordingURL:    f.RecordingURL,
		From:            f.From,
		DurationSeconds: duration,
	}
}
