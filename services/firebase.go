package services

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	log "github.com/go-pkgz/lgr"
	"google.golang.org/api/option"
)

// FirebaseService reads branding assets from Firebase Cloud Storage
type FirebaseService struct {
	bucket *storage.BucketHandle
}

// NewFirebaseService opens the storage bucket holding preview backgrounds.
// credentialsJSON is the service account key itself, not a file path.
func NewFirebaseService(credentialsJSON string, storageBucket string) (*FirebaseService, error) {
	ctx := context.Background()

	app, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: storageBucket},
		option.WithCredentialsJSON([]byte(credentialsJSON)))
	if err != nil {
		return nil, fmt.Errorf("firebase app for bucket %s: %w", storageBucket, err)
	}

	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase storage client: %w", err)
	}
	bucket, err := client.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("bucket %s: %w", storageBucket, err)
	}

	log.Printf("[INFO] asset bucket %s ready", storageBucket)
	return &FirebaseService{bucket: bucket}, nil
}

// Open streams an object from the bucket
func (s *FirebaseService) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	obj := s.bucket.Object(objectPath)
	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", objectPath, err)
	}
	return r, nil
}

// Close is a no-op, the storage client is owned by the firebase app
func (s *FirebaseService) Close() error {
	return nil
}
