package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	config "github.com/maheshrc27/tweet-scheduler/configs"
	"github.com/maheshrc27/tweet-scheduler/internal/models"
	"github.com/maheshrc27/tweet-scheduler/internal/oauth1"
	"github.com/maheshrc27/tweet-scheduler/internal/transfer"
	"github.com/maheshrc27/tweet-scheduler/pkg/utils"
	"golang.org/x/time/rate"
)

var (
	ErrMediaUpload        = errors.New("media upload failed")
	ErrCredentialRejected = errors.New("credential rejected by twitter")
	ErrHandshake          = errors.New("twitter authorization failed")
)

const (
	tweetsPath            = "/2/tweets"
	mediaUploadPath       = "/1.1/media/upload.json"
	verifyCredentialsPath = "/1.1/account/verify_credentials.json"
	requestTokenPath      = "/oauth/request_token"
	accessTokenPath       = "/oauth/access_token"
	authorizePath         = "/oauth/authorize"
)

type TwitterService interface {
	UploadMedia(ctx context.Context, cred *models.Credential, media []byte) (string, error)
	// PostText only returns an error when the request could not be built.
	// Remote rejections and transport failures come back as a response with
	// Errors set.
	PostText(ctx context.Context, cred *models.Credential, text string, mediaIDs []string, communityID string) (*transfer.TweetResponse, error)
	VerifyCredentials(ctx context.Context, cred *models.Credential) (*transfer.TwitterUser, error)
	RequestToken(ctx context.Context) (*transfer.RequestToken, error)
	AuthorizeURL(requestToken string) string
	AccessToken(ctx context.Context, requestToken, requestTokenSecret, verifier string) (*transfer.AccessToken, error)
}

type twitterService struct {
	cfg     config.Twitter
	signer  *oauth1.Signer
	client  *http.Client
	limiter *rate.Limiter
}

func NewTwitterService(cfg config.Twitter, client *http.Client) TwitterService {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &twitterService{
		cfg:     cfg,
		signer:  oauth1.NewSigner(oauth1.Consumer{Key: cfg.APIKey, Secret: cfg.APISecret}, utils.GenerateNonce),
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func tokenOf(cred *models.Credential) *oauth1.Token {
	return &oauth1.Token{Key: cred.AccessToken, Secret: cred.AccessTokenSecret}
}

// send signs req and performs it. The body is never part of the signature
// unless it is carried in req.Form.
func (s *twitterService) send(ctx context.Context, req oauth1.Request, body io.Reader, contentType string) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	authorization, err := s.signer.Authorize(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", authorization)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	return s.client.Do(httpReq)
}

func (s *twitterService) PostText(ctx context.Context, cred *models.Credential, text string, mediaIDs []string, communityID string) (*transfer.TweetResponse, error) {
	payload := transfer.TweetRequest{Text: text, CommunityID: communityID}
	if len(mediaIDs) > 0 {
		payload.Media = &transfer.TweetMedia{MediaIDs: mediaIDs}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tweet: %w", err)
	}

	req := oauth1.Request{Method: http.MethodPost, URL: s.cfg.APIURL + tweetsPath, Token: tokenOf(cred)}
	resp, err := s.send(ctx, req, bytes.NewReader(body), "application/json")
	if err != nil {
		slog.Warn("tweet request failed", "error", err)
		return transfer.NetworkError(err), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("reading tweet response failed", "error", err)
		return transfer.NetworkError(err), nil
	}

	result := &transfer.TweetResponse{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			slog.Info(err.Error())
			result = &transfer.TweetResponse{}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("failed to post tweet", "status", resp.StatusCode, "body", string(raw))
		result.Data = nil
		result.NormalizeErrors(resp.StatusCode)
	}

	return result, nil
}

func (s *twitterService) UploadMedia(ctx context.Context, cred *models.Credential, media []byte) (string, error) {
	if len(media) == 0 {
		return "", fmt.Errorf("%w: empty media", ErrMediaUpload)
	}

	mimeType := "application/octet-stream"
	extension := "bin"
	if kind, err := filetype.Match(media); err == nil && kind != types.Unknown {
		mimeType = kind.MIME.Value
		extension = kind.Extension
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename="media.%s"`, extension))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMediaUpload, err)
	}
	if _, err := part.Write(media); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMediaUpload, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMediaUpload, err)
	}

	req := oauth1.Request{Method: http.MethodPost, URL: s.cfg.UploadURL + mediaUploadPath, Token: tokenOf(cred)}
	resp, err := s.send(ctx, req, &buf, writer.FormDataContentType())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMediaUpload, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMediaUpload, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("failed to upload media", "status", resp.StatusCode, "body", string(raw))
		return "", fmt.Errorf("%w: HTTP %d", ErrMediaUpload, resp.StatusCode)
	}

	var result transfer.MediaUploadResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrMediaUpload, err)
	}
	if result.MediaIDString == "" {
		return "", fmt.Errorf("%w: response has no media_id_string", ErrMediaUpload)
	}

	return result.MediaIDString, nil
}

func (s *twitterService) VerifyCredentials(ctx context.Context, cred *models.Credential) (*transfer.TwitterUser, error) {
	req := oauth1.Request{
		Method: http.MethodGet,
		URL:    s.cfg.APIURL + verifyCredentialsPath + "?skip_status=true",
		Token:  tokenOf(cred),
	}
	resp, err := s.send(ctx, req, nil, "")
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: HTTP %d", ErrCredentialRejected, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verify credentials: HTTP %d", resp.StatusCode)
	}

	var user transfer.TwitterUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("decode verify credentials response: %w", err)
	}
	return &user, nil
}

func (s *twitterService) RequestToken(ctx context.Context) (*transfer.RequestToken, error) {
	req := oauth1.Request{
		Method: http.MethodPost,
		URL:    s.cfg.APIURL + requestTokenPath,
		Extra:  map[string]string{"oauth_callback": s.cfg.CallbackURL},
	}
	values, err := s.tokenExchange(ctx, req)
	if err != nil {
		return nil, err
	}

	token := &transfer.RequestToken{
		Token:             values.Get("oauth_token"),
		TokenSecret:       values.Get("oauth_token_secret"),
		CallbackConfirmed: values.Get("oauth_callback_confirmed") == "true",
	}
	if token.Token == "" || token.TokenSecret == "" {
		return nil, fmt.Errorf("%w: request token missing from response", ErrHandshake)
	}
	if !token.CallbackConfirmed {
		return nil, fmt.Errorf("%w: callback not confirmed", ErrHandshake)
	}
	return token, nil
}

func (s *twitterService) AuthorizeURL(requestToken string) string {
	params := url.Values{}
	params.Add("oauth_token", requestToken)
	return fmt.Sprintf("%s%s?%s", s.cfg.APIURL, authorizePath, params.Encode())
}

func (s *twitterService) AccessToken(ctx context.Context, requestToken, requestTokenSecret, verifier string) (*transfer.AccessToken, error) {
	req := oauth1.Request{
		Method: http.MethodPost,
		URL:    s.cfg.APIURL + accessTokenPath,
		Token:  &oauth1.Token{Key: requestToken, Secret: requestTokenSecret},
		Form:   url.Values{"oauth_verifier": {verifier}},
	}
	values, err := s.tokenExchange(ctx, req)
	if err != nil {
		return nil, err
	}

	token := &transfer.AccessToken{
		Token:       values.Get("oauth_token"),
		TokenSecret: values.Get("oauth_token_secret"),
		UserID:      values.Get("user_id"),
		ScreenName:  values.Get("screen_name"),
	}
	if token.Token == "" || token.TokenSecret == "" {
		return nil, fmt.Errorf("%w: access token missing from response", ErrHandshake)
	}
	return token, nil
}

// tokenExchange performs one leg of the handshake. Both legs answer with a
// form-encoded body.
func (s *twitterService) tokenExchange(ctx context.Context, req oauth1.Request) (url.Values, error) {
	var body io.Reader
	contentType := ""
	if len(req.Form) > 0 {
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	resp, err := s.send(ctx, req, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if resp.StatusCode != http.StatusOK {
		slog.Error("token exchange rejected", "status", resp.StatusCode, "body", string(raw))
		return nil, fmt.Errorf("%w: HTTP %d", ErrHandshake, resp.StatusCode)
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	return values, nil
}
