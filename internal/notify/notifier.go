// Package notify sends optional out-of-band notifications when the
// hunter lands an instance.
package notify

// Notifier delivers a plain-text message.
type Notifier interface {
	Notify(message string) error
}
