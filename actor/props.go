// File: actor/props.go
package actor

// Producer is a function that creates a new instance of a Receiver.
type Producer func() Receiver

// Props configures actor creation.
type Props struct {
	producer    Producer
	mailboxSize int
}

// NewProps creates a Props with the given producer and the default mailbox.
func NewProps(producer Producer) *Props {
	if producer == nil {
		panic("actor: producer cannot be nil")
	}
	return &Props{producer: producer, mailboxSize: defaultMailboxSize}
}

// WithMailboxSize overrides the mailbox buffer size.
func (p *Props) WithMailboxSize(n int) *Props {
	if n > 0 {
		p.mailboxSize = n
	}
	return p
}

// Produce creates a new receiver instance using the configured producer.
func (p *Props) Produce() Receiver {
	return p.producer()
}
