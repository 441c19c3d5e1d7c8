package app

import (
	"context"

	"github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/domain"
)

// DirectoryLookup resolves a normalized phone number to a directory record.
// The bool reports whether a record matched; err is reserved for
// infrastructure failures reaching the directory.
type DirectoryLookup interface {
	Find(ctx context.Context, phone string) (*domain.DirectoryRecord, bool, error)
}

// DocumentLocator resolves an enrollment number to a document reference in
// the file store.
type DocumentLocator interface {
	Locate(ctx context.Context, enrollmentNumber string) (*domain.DocumentRef, bool, error)
}

// DocumentFetcher resolves a possibly-interstitial download link into bytes
// on local scoped storage.
type DocumentFetcher interface {
	Fetch(ctx context.Context, link string) (*domain.FetchedDocument, error)
}

// DeliveryDispatcher transmits a fetched document or a plain-text message to
// the requester through the messaging gateway.
type DeliveryDispatcher interface {
	SendDocument(ctx context.Context, phone, displayName string, doc *domain.FetchedDocument) (*domain.DeliveryResult, error)
	SendText(ctx context.Context, phone, message string) (*domain.DeliveryResult, error)
}
