package ports

import (
	"context"

	"omnichannel/domain/entities"
)

// ClientRepository defines the CRUD contract shared by the primary store, the
// secondary store and the failover composition that fronts both.
// This is a port in hexagonal architecture - callers don't know which backing
// store actually served the request.
type ClientRepository interface {
	// GetAll returns every client record in the store.
	GetAll(ctx context.Context) ([]*entities.Client, error)

	// GetByID returns the client with the given identifier, or (nil, nil)
	// when no such record exists.
	GetByID(ctx context.Context, id int) (*entities.Client, error)

	// Create persists a new client, assigning the identifier and creation
	// timestamp when unset, and returns the persisted form.
	Create(ctx context.Context, client *entities.Client) (*entities.Client, error)

	// Update overwrites the stored record for the client's identifier.
	Update(ctx context.Context, client *entities.Client) error

	// Delete removes the client with the given identifier. Deleting an
	// absent identifier is a no-op, not an error.
	Delete(ctx context.Context, id int) error

	// Exists reports whether a client with the given identifier is stored.
	Exists(ctx context.Context, id int) (bool, error)
}

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarn     Severity = "WARN"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// NotificationSink receives best-effort operational notifications, most
// importantly failover events. Implementations must not block the caller and
// must swallow their own failures: a broken sink never alters a CRUD result.
type NotificationSink interface {
	Notify(ctx context.Context, message string, severity Severity)
}

// UploadLinkIssuer mints time-boxed, write-only upload URLs for activity
// files. It holds no state and does not touch the client repository.
type UploadLinkIssuer interface {
	// IssueUploadLink returns a signed URL scoped to the given file name.
	// A blank file name is a validation error.
	IssueUploadLink(ctx context.Context, fileName string) (string, error)
}
