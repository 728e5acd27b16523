// Package format builds the immutable display records broadcast to rooms.
// It is the only place the timestamp presentation rule is defined.
package format

import (
	"fmt"
	"time"

	"roomcast/domain"
)

// displayLayout renders timestamps as "h:mm a", e.g. "9:05 PM".
const displayLayout = "3:04 PM"

const welcomeText = "Welcome to the room!"

// NoticeKind selects the text of a system notice.
type NoticeKind string

const (
	NoticeWelcome    NoticeKind = "welcome"
	NoticeUserJoined NoticeKind = "userJoined"
	NoticeUserLeft   NoticeKind = "userLeft"
)

// Formatter produces message records in a single configured display
// timezone, so every record shares one presentation rule regardless of
// the caller.
type Formatter struct {
	loc *time.Location
	now func() time.Time
}

func NewFormatter(loc *time.Location) *Formatter {
	return &Formatter{loc: loc, now: time.Now}
}

// Format builds a user message record. The text must already be
// sanitized by the validation collaborator; no escaping happens here.
func (f *Formatter) Format(username, room, text string) domain.MessageRecord {
	return domain.MessageRecord{
		Username: username,
		Text:     text,
		Time:     f.now().In(f.loc).Format(displayLayout),
		Room:     room,
	}
}

// SystemNotice builds a record authored by the system. The welcome text
// is fixed and independent of any user.
func (f *Formatter) SystemNotice(kind NoticeKind, username, room string) domain.MessageRecord {
	var text string
	switch kind {
	case NoticeWelcome:
		text = welcomeText
	case NoticeUserJoined:
		text = fmt.Sprintf("%s has joined the room", username)
	case NoticeUserLeft:
		text = fmt.Sprintf("%s has left the room", username)
	}
	return f.Format(domain.SystemUsername, room, text)
}
