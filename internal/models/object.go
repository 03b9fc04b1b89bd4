package models

// ObjectRef describes a stored remote object. It is owned by the remote
// provider and only referenced transiently by responses.
type ObjectRef struct {
	ID          string
	Name        string
	ContentType string
	Size        int64
	Link        string
}
