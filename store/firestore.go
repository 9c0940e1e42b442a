package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/jacobmichels/portal/config"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ Store = FirestoreStore{}

// FirestoreStore keeps one document per key; the document id is the key
type FirestoreStore struct {
	firestore *firestore.Client
	cfg       config.Firestore
}

type firestoreValue struct {
	Value string `firestore:"value"`
}

func newFirestoreStore(ctx context.Context, cfg config.Firestore) (FirestoreStore, error) {
	if cfg.ProjectID == "" {
		return FirestoreStore{}, errors.New("firestore project id is required")
	}

	// Create a new Firestore client using application default credentials.
	if cfg.CredentialsFile == "" {
		client, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return FirestoreStore{}, fmt.Errorf("failed to create firestore client: %w", err)
		}

		return FirestoreStore{client, cfg}, nil
	}

	// Create a new Firestore client using supplied credentials file.
	client, err := firestore.NewClient(ctx, cfg.ProjectID, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return FirestoreStore{}, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return FirestoreStore{client, cfg}, nil
}

func (f FirestoreStore) Get(ctx context.Context, key string) (string, bool, error) {
	document, err := f.firestore.Collection(f.cfg.CollectionID).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get document %s: %w", key, err)
	}

	var result firestoreValue
	if err := document.DataTo(&result); err != nil {
		return "", false, fmt.Errorf("failed to deserialize document %s: %w", key, err)
	}

	return result.Value, true, nil
}

func (f FirestoreStore) Set(ctx context.Context, key, value string) error {
	_, err := f.firestore.Collection(f.cfg.CollectionID).Doc(key).Set(ctx, firestoreValue{value})
	if err != nil {
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	return nil
}

// deleting a missing document is not an error in firestore
func (f FirestoreStore) Delete(ctx context.Context, key string) error {
	_, err := f.firestore.Collection(f.cfg.CollectionID).Doc(key).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}

func (f FirestoreStore) Close() error {
	return f.firestore.Close()
}
