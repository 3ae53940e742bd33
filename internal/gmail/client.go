package gmail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const (
	// BaseURL is the Gmail API endpoint for the authorized account.
	BaseURL = "https://gmail.googleapis.com/gmail/v1/users/me"

	// DefaultPageSize bounds list calls when the caller sets none.
	DefaultPageSize = 10
)

// googleEndpoint avoids pulling the full google auth package for two URLs.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// Client is an HTTP client for the Gmail API. Requests are authorized with
// a per-user refresh token; the oauth2 transport refreshes access tokens as
// needed.
type Client struct {
	conf    *oauth2.Config
	baseURL string

	// httpClient overrides the oauth2 transport when set (tests).
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a Gmail API client for the configured OAuth app.
func NewClient(clientID, clientSecret, callbackURL string) *Client {
	return &Client{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     googleEndpoint,
		},
		baseURL: BaseURL,
		timeout: 30 * time.Second,
	}
}

// ConsentURL builds the offline-access consent page URL for the scopes.
func (c *Client) ConsentURL(scopes []string) string {
	conf := *c.conf
	conf.Scopes = scopes
	return conf.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for tokens. The response includes
// the refresh token and the granted scope list.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}
	return token, nil
}

func (c *Client) client(ctx context.Context, refreshToken string) *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	client := c.conf.Client(ctx, &oauth2.Token{RefreshToken: refreshToken})
	client.Timeout = c.timeout
	return client
}

// do performs one authorized API call, decoding the response into out. A
// non-2xx response is returned as *APIError.
func (c *Client) do(ctx context.Context, refreshToken, method, path string, query url.Values, body, out any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	log.Printf("[gmail] %s %s", method, c.baseURL+path)

	resp, err := c.client(ctx, refreshToken).Do(req)
	if err != nil {
		log.Printf("[gmail] request error: %v", err)
		return fmt.Errorf("gmail request: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("[gmail] response status=%d duration=%dms", resp.StatusCode, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope apiErrorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == nil {
			return &APIError{Code: resp.StatusCode, Message: resp.Status}
		}
		return envelope.Error
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gmail response: %w", err)
	}
	return nil
}

func listQuery(maxResults int, pageToken string) url.Values {
	if maxResults <= 0 {
		maxResults = DefaultPageSize
	}
	q := url.Values{}
	q.Set("maxResults", strconv.Itoa(maxResults))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	return q
}

func (c *Client) ListThreads(ctx context.Context, refreshToken string, maxResults int, pageToken string) (*ThreadList, error) {
	var out ThreadList
	if err := c.do(ctx, refreshToken, http.MethodGet, "/threads", listQuery(maxResults, pageToken), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetThread(ctx context.Context, refreshToken, threadID string) (*Thread, error) {
	var out Thread
	q := url.Values{}
	q.Set("format", "full")
	if err := c.do(ctx, refreshToken, http.MethodGet, "/threads/"+threadID, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListMessages(ctx context.Context, refreshToken, labelID string, maxResults int, pageToken string) (*MessageList, error) {
	q := listQuery(maxResults, pageToken)
	if labelID != "" {
		q.Set("labelIds", labelID)
	}
	var out MessageList
	if err := c.do(ctx, refreshToken, http.MethodGet, "/messages", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMessage(ctx context.Context, refreshToken, messageID string) (*Message, error) {
	q := url.Values{}
	q.Set("format", "full")
	var out Message
	if err := c.do(ctx, refreshToken, http.MethodGet, "/messages/"+messageID, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetAttachment(ctx context.Context, refreshToken, messageID, attachmentID string) (*PartBody, error) {
	var out PartBody
	path := "/messages/" + messageID + "/attachments/" + attachmentID
	if err := c.do(ctx, refreshToken, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListDrafts(ctx context.Context, refreshToken string, maxResults int, pageToken string) (*DraftList, error) {
	var out DraftList
	if err := c.do(ctx, refreshToken, http.MethodGet, "/drafts", listQuery(maxResults, pageToken), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDraft(ctx context.Context, refreshToken, draftID string) (*Draft, error) {
	q := url.Values{}
	q.Set("format", "full")
	var out Draft
	if err := c.do(ctx, refreshToken, http.MethodGet, "/drafts/"+draftID, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetLabel(ctx context.Context, refreshToken, labelID string) (*Label, error) {
	var out Label
	if err := c.do(ctx, refreshToken, http.MethodGet, "/labels/"+labelID, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ModifyMessage adds and removes label ids on a message.
func (c *Client) ModifyMessage(ctx context.Context, refreshToken, messageID string, addLabels, removeLabels []string) (*Message, error) {
	body := map[string]any{}
	if len(addLabels) > 0 {
		body["addLabelIds"] = addLabels
	}
	if len(removeLabels) > 0 {
		body["removeLabelIds"] = removeLabels
	}
	var out Message
	if err := c.do(ctx, refreshToken, http.MethodPost, "/messages/"+messageID+"/modify", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TrashMessage(ctx context.Context, refreshToken, messageID string) (*Message, error) {
	var out Message
	if err := c.do(ctx, refreshToken, http.MethodPost, "/messages/"+messageID+"/trash", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UntrashMessage(ctx context.Context, refreshToken, messageID string) (*Message, error) {
	var out Message
	if err := c.do(ctx, refreshToken, http.MethodPost, "/messages/"+messageID+"/untrash", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BatchDelete(ctx context.Context, refreshToken string, messageIDs []string) error {
	body := map[string]any{"ids": messageIDs}
	return c.do(ctx, refreshToken, http.MethodPost, "/messages/batchDelete", nil, body, nil)
}

// SendMessage sends a raw RFC 822 message (base64url-encoded). A non-empty
// threadID makes the message a reply on that thread.
func (c *Client) SendMessage(ctx context.Context, refreshToken, raw, threadID string) (*Message, error) {
	body := map[string]any{"raw": raw}
	if threadID != "" {
		body["threadId"] = threadID
	}
	var out Message
	if err := c.do(ctx, refreshToken, http.MethodPost, "/messages/send", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Watch subscribes the mailbox to push notifications on the pub/sub topic.
func (c *Client) Watch(ctx context.Context, refreshToken, topicName string) (*WatchResponse, error) {
	body := map[string]any{"topicName": topicName}
	var out WatchResponse
	if err := c.do(ctx, refreshToken, http.MethodPost, "/watch", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
