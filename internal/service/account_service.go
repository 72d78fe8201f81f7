package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/tweet-scheduler/internal/models"
	"github.com/maheshrc27/tweet-scheduler/internal/repository"
	"github.com/maheshrc27/tweet-scheduler/internal/transfer"
	"github.com/maheshrc27/tweet-scheduler/pkg/utils"
)

// AccountService owns the single connected account. Tokens are stored
// encrypted and handed out decrypted.
type AccountService interface {
	// GetPrimaryCredential returns nil when nothing is connected or the
	// stored token pair is incomplete.
	GetPrimaryCredential(ctx context.Context) (*models.Credential, error)
	StartAuthorization(ctx context.Context) (string, *transfer.RequestToken, error)
	CompleteAuthorization(ctx context.Context, requestToken, requestTokenSecret, verifier string) (*transfer.TwitterProfile, error)
	Disconnect(ctx context.Context) error
	Profile(ctx context.Context) (*transfer.TwitterProfile, error)
}

type accountService struct {
	cr  repository.CredentialRepository
	tw  TwitterService
	key []byte
}

func NewAccountService(secretKey string, cr repository.CredentialRepository, tw TwitterService) AccountService {
	return &accountService{
		cr:  cr,
		tw:  tw,
		key: utils.DeriveKey(secretKey),
	}
}

func (s *accountService) GetPrimaryCredential(ctx context.Context) (*models.Credential, error) {
	stored, err := s.cr.GetPrimary(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if !stored.IsComplete() {
		return nil, nil
	}

	accessToken, err := utils.Decrypt(stored.AccessToken, s.key)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}
	accessTokenSecret, err := utils.Decrypt(stored.AccessTokenSecret, s.key)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token secret: %w", err)
	}

	cred := *stored
	cred.AccessToken = accessToken
	cred.AccessTokenSecret = accessTokenSecret
	if !cred.IsComplete() {
		return nil, nil
	}
	return &cred, nil
}

func (s *accountService) StartAuthorization(ctx context.Context) (string, *transfer.RequestToken, error) {
	token, err := s.tw.RequestToken(ctx)
	if err != nil {
		slog.Error("failed to obtain request token", "error", err)
		return "", nil, err
	}
	return s.tw.AuthorizeURL(token.Token), token, nil
}

func (s *accountService) CompleteAuthorization(ctx context.Context, requestToken, requestTokenSecret, verifier string) (*transfer.TwitterProfile, error) {
	if requestToken == "" || requestTokenSecret == "" || verifier == "" {
		return nil, fmt.Errorf("%w: missing token or verifier", ErrHandshake)
	}

	access, err := s.tw.AccessToken(ctx, requestToken, requestTokenSecret, verifier)
	if err != nil {
		slog.Error("failed to exchange verifier", "error", err)
		return nil, err
	}

	cred := &models.Credential{
		ExternalAccountID: access.UserID,
		Handle:            access.ScreenName,
		AccessToken:       access.Token,
		AccessTokenSecret: access.TokenSecret,
	}

	user, err := s.tw.VerifyCredentials(ctx, cred)
	if err != nil {
		slog.Error("failed to verify new credential", "error", err)
		return nil, err
	}
	if user.ID != "" {
		cred.ExternalAccountID = user.ID
	}
	if user.ScreenName != "" {
		cred.Handle = user.ScreenName
	}
	cred.DisplayName = user.Name

	encryptedToken, err := utils.Encrypt(cred.AccessToken, s.key)
	if err != nil {
		return nil, err
	}
	encryptedSecret, err := utils.Encrypt(cred.AccessTokenSecret, s.key)
	if err != nil {
		return nil, err
	}

	stored := *cred
	stored.AccessToken = encryptedToken
	stored.AccessTokenSecret = encryptedSecret
	if _, err := s.cr.Save(ctx, &stored); err != nil {
		return nil, fmt.Errorf("save credential: %w", err)
	}

	slog.Info("account connected", "handle", cred.Handle)
	return profileOf(cred), nil
}

func (s *accountService) Disconnect(ctx context.Context) error {
	if err := s.cr.RemoveAll(ctx); err != nil {
		return fmt.Errorf("remove credential: %w", err)
	}
	return nil
}

func (s *accountService) Profile(ctx context.Context) (*transfer.TwitterProfile, error) {
	cred, err := s.cr.GetPrimary(ctx)
	if err != nil {
		return nil, err
	}
	if !cred.IsComplete() {
		return &transfer.TwitterProfile{Connected: false}, nil
	}
	return profileOf(cred), nil
}

func profileOf(cred *models.Credential) *transfer.TwitterProfile {
	return &transfer.TwitterProfile{
		Connected:   true,
		AccountID:   cred.ExternalAccountID,
		Handle:      cred.Handle,
		DisplayName: cred.DisplayName,
	}
}
