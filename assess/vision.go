package assess

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"

	"cosmossdk.io/log"

	"github.com/narasim-teja/tars/resiliency"
	"github.com/narasim-teja/tars/types"
)

// VisionClient sends the canonical image to an external vision-analysis
// service and returns its description and tags.
type VisionClient struct {
	Url    string
	apiKey string
	cli    *resiliency.Client
	logger log.Logger
}

var _ Analyzer = &VisionClient{}

func NewVisionClient(serviceUrl, apiKey string, cli *resiliency.Client, logger log.Logger) *VisionClient {
	return &VisionClient{
		Url:    serviceUrl,
		apiKey: apiKey,
		cli:    cli,
		logger: logger.With("module", "vision"),
	}
}

type analyzeRequest struct {
	Image  string `json:"image"`
	Format string `json:"format"`
}

type analyzeResponse struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (c *VisionClient) Analyze(ctx context.Context, ev *types.Evidence) (*Analysis, error) {
	analyzeUrl, err := url.JoinPath(c.Url, "/analyze")
	if err != nil {
		return nil, err
	}
	req := analyzeRequest{
		Image:  base64.StdEncoding.EncodeToString(ev.Canonical),
		Format: ev.Format,
	}
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}
	var res analyzeResponse
	if err := c.cli.DoJSON(ctx, http.MethodPost, analyzeUrl, headers, req, &res); err != nil {
		return nil, err
	}
	c.logger.Debug("analysis done", "hash", ev.ContentHash.Hex(), "tags", len(res.Tags))
	return &Analysis{Description: res.Description, Tags: res.Tags}, nil
}
