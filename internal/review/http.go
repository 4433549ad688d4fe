package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPSender POSTs jobs as JSON to the review pipeline.
type HTTPSender struct {
	URL    string
	Secret string
	Client *http.Client
}

func NewHTTPSender(url, secret string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{URL: url, Secret: secret, Client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSender) Send(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Claimwork-Event", "review.requested")
	req.Header.Set("X-Claimwork-Ticket", job.TicketID)
	if strings.TrimSpace(s.Secret) != "" {
		req.Header.Set("X-Claimwork-Secret", s.Secret)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("review pipeline status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
