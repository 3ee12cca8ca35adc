package beneficiary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bnp/financing/internal/domain"
)

// Client resolves beneficiaries against the membership directory service.
// The engine never owns beneficiary data; it only snapshots id and display
// name onto the loan at origination.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new directory client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type memberResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Lookup fetches a beneficiary by ID. Transient directory failures are
// retried briefly; a 404 maps to domain.ErrBeneficiaryNotFound.
func (c *Client) Lookup(ctx context.Context, id string) (*domain.BeneficiaryRef, error) {
	var member memberResponse

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/members/"+id, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
				return backoff.Permanent(err)
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(domain.ErrBeneficiaryNotFound)
		case resp.StatusCode >= 500:
			return fmt.Errorf("directory returned status %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("directory returned status %d", resp.StatusCode))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}

	return &domain.BeneficiaryRef{
		ID:          member.ID,
		DisplayName: member.DisplayName,
	}, nil
}
