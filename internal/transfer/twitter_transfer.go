package transfer

import (
	"fmt"
	"strings"
)

type TweetRequest struct {
	Text        string      `json:"text"`
	Media       *TweetMedia `json:"media,omitempty"`
	CommunityID string      `json:"community_id,omitempty"`
}

type TweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

// TweetResponse is either a success (Data set) or an error (Errors set).
// Title, Detail and Status are filled by problem-style error bodies.
type TweetResponse struct {
	Data   *TweetData   `json:"data,omitempty"`
	Errors []TweetError `json:"errors,omitempty"`
	Title  string       `json:"title,omitempty"`
	Detail string       `json:"detail,omitempty"`
	Status int          `json:"status,omitempty"`
}

type TweetData struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type TweetError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

const ErrorTypeNetwork = "network_error"

func (r *TweetResponse) Succeeded() bool {
	return r != nil && r.Data != nil && r.Data.ID != ""
}

// ErrorMessage joins the error messages with ", ".
func (r *TweetResponse) ErrorMessage() string {
	if r == nil {
		return ""
	}
	var messages []string
	for _, e := range r.Errors {
		if e.Message != "" {
			messages = append(messages, e.Message)
		}
	}
	return strings.Join(messages, ", ")
}

// NetworkError builds the response reported when the request never got an
// answer.
func NetworkError(err error) *TweetResponse {
	return &TweetResponse{Errors: []TweetError{{Message: err.Error(), Type: ErrorTypeNetwork}}}
}

// NormalizeErrors makes sure a rejected response carries at least one error
// entry, falling back to detail, title, then the HTTP status.
func (r *TweetResponse) NormalizeErrors(statusCode int) {
	if len(r.Errors) > 0 && r.ErrorMessage() != "" {
		return
	}
	message := r.Detail
	if message == "" {
		message = r.Title
	}
	if message == "" {
		message = fmt.Sprintf("HTTP %d", statusCode)
	}
	r.Errors = append(r.Errors, TweetError{Message: message, Type: "http_error"})
}

type MediaUploadResponse struct {
	MediaID       int64  `json:"media_id"`
	MediaIDString string `json:"media_id_string"`
}

type TwitterUser struct {
	ID         string `json:"id_str"`
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
}

type RequestToken struct {
	Token             string
	TokenSecret       string
	CallbackConfirmed bool
}

type AccessToken struct {
	Token       string
	TokenSecret string
	UserID      string
	ScreenName  string
}

type TwitterProfile struct {
	Connected   bool   `json:"connected"`
	AccountID   string `json:"twitter_user_id,omitempty"`
	Handle      string `json:"twitter_username,omitempty"`
	DisplayName string `json:"twitter_display_name,omitempty"`
}
