package pullrequests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURLConstant                = "https://api.github.com"
	pullRequestPathTemplateConstant       = "/repos/%s/%s/pulls/%d"
	acceptHeaderNameConstant              = "Accept"
	acceptHeaderValueConstant             = "application/vnd.github+json"
	authorizationHeaderNameConstant       = "Authorization"
	authorizationTemplateConstant         = "token %s"
	defaultRequestTimeoutConstant         = 30 * time.Second
	statusErrorTemplateConstant           = "could not get status of %s: %s"
	requestErrorTemplateConstant          = "request for %s failed: %v"
	responseDecodingErrorTemplateConstant = "%s response decoding failed: %v"
	shortcutTemplateConstant              = "%s/%s#%d"
)

// PullRequest captures the pull request fields reported to users.
type PullRequest struct {
	Owner      string
	Repository string
	Number     int
	State      string
	URL        string
	Merged     bool
	Labels     []string
}

// Shortcut renders owner/repository#number.
func (pullRequest PullRequest) Shortcut() string {
	return fmt.Sprintf(shortcutTemplateConstant, pullRequest.Owner, pullRequest.Repository, pullRequest.Number)
}

// StatusError reports a GitHub response other than 200 OK.
type StatusError struct {
	Path       string
	StatusCode int
	Status     string
}

// Error describes the unexpected status.
func (statusError StatusError) Error() string {
	return fmt.Sprintf(statusErrorTemplateConstant, statusError.Path, statusError.Status)
}

// RequestError wraps transport failures.
type RequestError struct {
	Path  string
	Cause error
}

// Error describes the transport failure.
func (requestError RequestError) Error() string {
	return fmt.Sprintf(requestErrorTemplateConstant, requestError.Path, requestError.Cause)
}

// Unwrap exposes the transport error.
func (requestError RequestError) Unwrap() error {
	return requestError.Cause
}

// ResponseDecodingError indicates a response body that is not a pull request document.
type ResponseDecodingError struct {
	Path  string
	Cause error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Path, decodingError.Cause)
}

// Unwrap exposes the JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// ClientOptions configures a Client. Zero values select api.github.com and a 30 second timeout.
type ClientOptions struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
}

// Client queries the GitHub REST API for pull request status.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient constructs a Client.
func NewClient(options ClientOptions) *Client {
	client := &Client{
		httpClient: options.HTTPClient,
		baseURL:    strings.TrimSuffix(options.BaseURL, "/"),
		token:      options.Token,
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultRequestTimeoutConstant}
	}
	if len(client.baseURL) == 0 {
		client.baseURL = defaultBaseURLConstant
	}
	return client
}

type pullRequestResponse struct {
	State   string `json:"state"`
	HTMLURL string `json:"html_url"`
	Merged  bool   `json:"merged"`
	Labels  []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

// PullRequest fetches GET /repos/{owner}/{repository}/pulls/{number}.
func (client *Client) PullRequest(requestContext context.Context, owner string, repository string, number int) (PullRequest, error) {
	path := fmt.Sprintf(pullRequestPathTemplateConstant, owner, repository, number)
	request, requestError := http.NewRequestWithContext(requestContext, http.MethodGet, client.baseURL+path, nil)
	if requestError != nil {
		return PullRequest{}, RequestError{Path: path, Cause: requestError}
	}
	request.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)
	if len(client.token) > 0 {
		request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(authorizationTemplateConstant, client.token))
	}

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		return PullRequest{}, RequestError{Path: path, Cause: responseError}
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return PullRequest{}, StatusError{Path: path, StatusCode: response.StatusCode, Status: response.Status}
	}

	var payload pullRequestResponse
	if decodeError := json.NewDecoder(response.Body).Decode(&payload); decodeError != nil {
		return PullRequest{}, ResponseDecodingError{Path: path, Cause: decodeError}
	}

	labels := make([]string, 0, len(payload.Labels))
	for _, label := range payload.Labels {
		labels = append(labels, label.Name)
	}
	return PullRequest{
		Owner:      owner,
		Repository: repository,
		Number:     number,
		State:      payload.State,
		URL:        payload.HTMLURL,
		Merged:     payload.Merged,
		Labels:     labels,
	}, nil
}
