package details

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/autopeer-io/garage/internal/garage/core"
	"github.com/autopeer-io/garage/internal/garage/model"
	"github.com/autopeer-io/garage/pkg/log"
	"github.com/autopeer-io/garage/pkg/options"
)

var (
	// ErrFetch is returned when the catalogue cannot be retrieved.
	ErrFetch = errors.New("error fetching vehicle details")
	// ErrFormat is returned when the catalogue is not a JSON array of details.
	ErrFormat = errors.New("malformed vehicle details")
)

var _ core.DetailsProvider = (*Provider)(nil)

// Provider serves vehicle details from a JSON catalogue that lives either on
// disk or behind an http(s) URL. The catalogue is read on every lookup.
type Provider struct {
	source string
	client *http.Client
	logger log.Logger
}

// New returns a provider for opts.Source, or nil when the source is empty.
func New(opts *options.DetailsOptions) *Provider {
	if opts == nil || strings.TrimSpace(opts.Source) == "" {
		return nil
	}
	return &Provider{
		source: opts.Source,
		client: &http.Client{Timeout: opts.Timeout},
		logger: log.WithName("details"),
	}
}

// Lookup returns the catalogue entry for vehicleID, or nil when there is none.
func (p *Provider) Lookup(ctx context.Context, vehicleID string) (*model.Details, error) {
	data, err := p.fetch(ctx)
	if err != nil {
		p.logger.Error(err, "Failed to fetch vehicle details", "source", p.source, "vehicleID", vehicleID)
		return nil, err
	}

	var entries []model.Details
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	for i := range entries {
		if entries[i].ID == vehicleID {
			d := entries[i]
			return &d, nil
		}
	}
	return nil, nil
}

func (p *Provider) fetch(ctx context.Context) ([]byte, error) {
	if !isRemote(p.source) {
		data, err := os.ReadFile(p.source)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetch, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.source, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: network error: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return data, nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
