package mailstore

import "time"

// ID is a message's UID within the selected mailbox.
type ID uint32

// Message is one remote email, already decoded: headers of interest plus
// the extracted text/html body parts. The pipeline never sees raw MIME.
type Message struct {
	ID       ID
	From     string
	Subject  string
	HTMLBody string
	TextBody string
	Received time.Time
}

// Criteria selects candidate messages for one ingest run.
type Criteria struct {
	Mailbox string
	Senders []string
	Since   time.Time
	Before  time.Time
}
