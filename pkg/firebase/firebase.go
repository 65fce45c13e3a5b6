package firebase

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"firebase.google.com/go/v4/storage"
	"google.golang.org/api/option"

	"github.com/anonto42/preschool-social/backend/pkg/logger"
)

// App holds the initialized Firebase app and the service clients the backend uses
type App struct {
	FirebaseApp     *firebase.App
	AuthClient      *auth.Client
	StorageClient   *storage.Client
	MessagingClient *messaging.Client
}

// InitFirebase initializes the Firebase application and its auth, storage and messaging clients
func InitFirebase(ctx context.Context, credentialsPath, storageBucket string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	var conf *firebase.Config
	if storageBucket != "" {
		conf = &firebase.Config{StorageBucket: storageBucket}
	}

	firebaseApp, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	storageClient, err := firebaseApp.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase storage client: %w", err)
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}

	logger.Info("firebase app, auth, storage and messaging clients initialized")
	return &App{
		FirebaseApp:     firebaseApp,
		AuthClient:      authClient,
		StorageClient:   storageClient,
		MessagingClient: messagingClient,
	}, nil
}
