package ports

import "github.com/aretw0/fold/pkg/domain"

// EventHandler consumes the well-formed event stream of one document.
// Producers guarantee every OpenElement has a matching CloseElement, with
// implicit closes flagged on the EndTag.
type EventHandler interface {
	OpenElement(el domain.Element) error
	CloseElement(et domain.EndTag) error
	// Text receives character data verbatim, already escaped as in the source.
	Text(data []byte) error
	// Comment receives the text between "<!--" and "-->".
	Comment(data []byte) error
	// Directive receives a doctype or other declaration verbatim.
	Directive(data []byte) error
	// Flush marks a point where output produced so far may be sent.
	Flush() error
	EndOfStream() error
}

// SummaryReporter is implemented by handlers that can describe a finished document.
type SummaryReporter interface {
	Summary() *domain.Summary
}
