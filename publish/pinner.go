package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"cosmossdk.io/log"

	"github.com/narasim-teja/tars/resiliency"
)

// Pinner stores bytes in content-addressed storage and returns the
// content identifier. Retrieval is GET <gateway>/<cid>.
type Pinner interface {
	Pin(ctx context.Context, data []byte, name string, meta map[string]string) (cid string, err error)
}

// PinClient pins through a Pinata-style HTTP pinning service.
type PinClient struct {
	Url    string
	jwt    string
	cli    *resiliency.Client
	logger log.Logger
}

var _ Pinner = &PinClient{}

func NewPinClient(serviceUrl, jwt string, cli *resiliency.Client, logger log.Logger) (*PinClient, error) {
	if serviceUrl == "" {
		return nil, errors.New("pinning service url is empty")
	}
	return &PinClient{
		Url:    serviceUrl,
		jwt:    jwt,
		cli:    cli,
		logger: logger.With("module", "pinner"),
	}, nil
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

func (c *PinClient) Pin(ctx context.Context, data []byte, name string, meta map[string]string) (string, error) {
	pinUrl, err := url.JoinPath(c.Url, "/pinning/pinFileToIPFS")
	if err != nil {
		return "", err
	}
	metadata := map[string]any{"name": name}
	if len(meta) > 0 {
		metadata["keyvalues"] = meta
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	headers := map[string]string{}
	if c.jwt != "" {
		headers["Authorization"] = "Bearer " + c.jwt
	}
	fields := map[string]string{"pinataMetadata": string(metaJSON)}
	var res pinResponse
	err = c.cli.PostMultipart(ctx, pinUrl, headers, "file", name, data, fields, &res)
	if err != nil {
		return "", err
	}
	if res.IpfsHash == "" {
		return "", errors.New("pinning service returned no cid")
	}
	c.logger.Info("pinned", "name", name, "cid", res.IpfsHash, "bytes", len(data))
	return res.IpfsHash, nil
}
