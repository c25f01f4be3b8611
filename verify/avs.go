package verify

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/narasim-teja/tars/resiliency"
)

// AVSClient submits verification tasks to the external attestation
// service over HTTP.
type AVSClient struct {
	Url    string
	apiKey string
	cli    *resiliency.Client
	logger log.Logger
}

var _ AttestationService = &AVSClient{}

func NewAVSClient(serviceUrl, apiKey string, cli *resiliency.Client, logger log.Logger) (*AVSClient, error) {
	if serviceUrl == "" {
		return nil, errors.New("attestation service url is empty")
	}
	return &AVSClient{
		Url:    serviceUrl,
		apiKey: apiKey,
		cli:    cli,
		logger: logger.With("module", "avs"),
	}, nil
}

type submitTaskRequest struct {
	ContentHash     string `json:"contentHash"`
	MetadataHash    string `json:"metadataHash"`
	DeviceSignature string `json:"deviceSignature"`
}

type submitTaskResponse struct {
	TaskID string `json:"taskId"`
}

func (c *AVSClient) SubmitTask(ctx context.Context, contentHash, metadataHash common.Hash, deviceSig []byte) (string, error) {
	taskUrl, err := url.JoinPath(c.Url, "/tasks")
	if err != nil {
		return "", err
	}
	req := submitTaskRequest{
		ContentHash:     contentHash.Hex(),
		MetadataHash:    metadataHash.Hex(),
		DeviceSignature: hex.EncodeToString(deviceSig),
	}
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}
	var res submitTaskResponse
	if err := c.cli.DoJSON(ctx, http.MethodPost, taskUrl, headers, req, &res); err != nil {
		return "", err
	}
	if res.TaskID == "" {
		// some deployments ack without a task id; keep a local reference
		res.TaskID = uuid.NewString()
	}
	c.logger.Info("task submitted", "task", res.TaskID, "hash", contentHash.Hex())
	return res.TaskID, nil
}
