// Package paper provides client for PaperMC API.
package paper

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lexfrei/goPaperMC/pkg/api"

	"github.com/lexfrei/modsyncer/pkg/version"
)

const defaultTimeout = 60 * time.Second

// Client provides access to PaperMC API using goPaperMC library.
type Client struct {
	paperClient *api.Client
}

// NewClient creates a new Paper API client.
func NewClient() *Client {
	return &Client{
		paperClient: api.NewClient().WithTimeout(defaultTimeout),
	}
}

// GetPaperVersions retrieves all available Paper versions.
func (c *Client) GetPaperVersions(ctx context.Context) ([]string, error) {
	project, err := c.paperClient.GetProject(ctx, "paper")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get Paper project")
	}

	return project.Versions, nil
}

// GetBuilds retrieves all build numbers for a specific Paper version in ascending order.
func (c *Client) GetBuilds(ctx context.Context, ver string) ([]int, error) {
	builds, err := c.paperClient.GetBuilds(ctx, "paper", ver)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get builds")
	}

	if len(builds.Builds) == 0 {
		return nil, errors.Newf("no builds available for version %s", ver)
	}

	buildNumbers := make([]int, 0, len(builds.Builds))
	for _, build := range builds.Builds {
		buildNumbers = append(buildNumbers, int(build.Build))
	}

	return buildNumbers, nil
}

// LatestStable returns the highest release version from versions, skipping
// pre-releases, release candidates and snapshots.
func LatestStable(versions []string) (string, error) {
	stable := make([]string, 0, len(versions))

	for _, v := range versions {
		lower := strings.ToLower(v)
		if strings.Contains(lower, "-") || strings.Contains(lower, "pre") ||
			strings.Contains(lower, "rc") || strings.Contains(lower, "w") {
			continue
		}

		stable = append(stable, v)
	}

	if len(stable) == 0 {
		return "", errors.New("no stable versions available")
	}

	latest, err := version.FindMaxVersion(stable)
	if err != nil {
		return "", errors.Wrap(err, "failed to find latest version")
	}

	return latest, nil
}
