package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/billing/backend/internal/domain/access"
	"go.uber.org/zap"
)

// DirectoryConfig holds settings for HTTPSubjectDirectory
type DirectoryConfig struct {
	// BaseURL of the directory service; membership is looked up at
	// /subjects/{subject}/associations
	BaseURL string
	// Timeout bounds the lookup
	Timeout time.Duration
}

// HTTPSubjectDirectory resolves the group and organization subjects an
// identity belongs to. Lookups degrade rather than fail: on any error
// the identity keeps access to its own subject and nothing more.
type HTTPSubjectDirectory struct {
	config DirectoryConfig
	client *http.Client
	logger *zap.Logger
}

var _ access.SubjectDirectory = (*HTTPSubjectDirectory)(nil)

// NewHTTPSubjectDirectory creates a directory client
func NewHTTPSubjectDirectory(config DirectoryConfig, logger *zap.Logger) *HTTPSubjectDirectory {
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	return &HTTPSubjectDirectory{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

type associationsResponse struct {
	Subjects []string `json:"subjects"`
}

// AssociatedSubjects returns the identity's own subject plus every
// subject the directory associates it with
func (d *HTTPSubjectDirectory) AssociatedSubjects(ctx context.Context, identity access.Identity) access.SubjectSet {
	set := access.NewSubjectSet(identity.Subject)

	associations, err := d.lookup(ctx, identity)
	if err != nil {
		d.logger.Warn("subject directory lookup failed, degrading to self only",
			zap.String("subject", identity.Subject),
			zap.Error(err))
		return set
	}

	for _, subject := range associations {
		set = set.Add(subject)
	}
	return set
}

func (d *HTTPSubjectDirectory) lookup(ctx context.Context, identity access.Identity) ([]string, error) {
	lookupURL := fmt.Sprintf("%s/subjects/%s/associations",
		d.config.BaseURL, url.PathEscape(identity.Subject))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+identity.Token)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var body associationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Subjects, nil
}
