package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"EventsDigest/internal/ports"
)

const (
	// DefaultBaseURL is the LinkedIn REST API root.
	DefaultBaseURL = "https://api.linkedin.com"
	// DefaultAPIVersion is sent as LinkedIn-Version when none is configured.
	DefaultAPIVersion = "202412"
)

// Publisher creates public feed posts for one author URN.
type Publisher struct {
	baseURL    string
	token      string
	authorURN  string
	apiVersion string
	client     *http.Client
	log        *slog.Logger
}

var _ ports.Publisher = (*Publisher)(nil)

type distribution struct {
	FeedDistribution               string   `json:"feedDistribution"`
	TargetEntities                 []string `json:"targetEntities"`
	ThirdPartyDistributionChannels []string `json:"thirdPartyDistributionChannels"`
}

type post struct {
	Author                    string       `json:"author"`
	Commentary                string       `json:"commentary"`
	Visibility                string       `json:"visibility"`
	Distribution              distribution `json:"distribution"`
	LifecycleState            string       `json:"lifecycleState"`
	IsReshareDisabledByAuthor bool         `json:"isReshareDisabledByAuthor"`
}

// NewPublisher returns a publisher. Empty baseURL and apiVersion use the defaults.
func NewPublisher(baseURL, token, authorURN, apiVersion string, log *slog.Logger) *Publisher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Publisher{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		authorURN:  authorURN,
		apiVersion: apiVersion,
		client:     &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

// Publish posts text as a published, public main-feed post.
func (p *Publisher) Publish(ctx context.Context, text string) error {
	if p.token == "" || p.authorURN == "" {
		return fmt.Errorf("linkedin publisher misconfigured")
	}

	body, err := json.Marshal(post{
		Author:     p.authorURN,
		Commentary: text,
		Visibility: "PUBLIC",
		Distribution: distribution{
			FeedDistribution:               "MAIN_FEED",
			TargetEntities:                 []string{},
			ThirdPartyDistributionChannels: []string{},
		},
		LifecycleState: "PUBLISHED",
	})
	if err != nil {
		return fmt.Errorf("encode post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/rest/posts", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	req.Header.Set("LinkedIn-Version", p.apiVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("linkedin error %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	p.log.Info("post created", "id", resp.Header.Get("x-restli-id"))
	return nil
}
