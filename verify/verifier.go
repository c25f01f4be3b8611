package verify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	eth_crypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/narasim-teja/tars/types"
)

// Check weights for the confidence score. Confidence is normalized by the
// weight of the checks actually performed; zero checks means zero
// confidence.
const (
	weightMetadata    = 0.4
	weightDevice      = 0.3
	weightAttestation = 0.3
)

// AttestationService issues verification tasks for a content hash. Task
// status transitions are owned by the service; the verifier only submits
// and records the task id.
type AttestationService interface {
	SubmitTask(ctx context.Context, contentHash, metadataHash common.Hash, deviceSig []byte) (taskID string, err error)
}

// ContentHash is the canonical content identity: keccak256 over the exact
// canonical bytes. Same bytes always yield the same hash.
func ContentHash(canonical []byte) common.Hash {
	return eth_crypto.Keccak256Hash(canonical)
}

// MetadataHash hashes the deterministic JSON serialization of the capture
// metadata.
func MetadataHash(meta types.CaptureMetadata) (common.Hash, error) {
	dat, err := json.Marshal(meta)
	if err != nil {
		return common.Hash{}, err
	}
	return eth_crypto.Keccak256Hash(dat), nil
}

// Verifier runs the authenticity checks for one piece of evidence.
// Attestation submission failure is non-fatal: it degrades confidence and
// is retained verbatim in the record for audit.
type Verifier struct {
	avs            AttestationService
	trustedDevices []string
	logger         log.Logger
}

func NewVerifier(avs AttestationService, trustedDevices []string, logger log.Logger) *Verifier {
	devices := make([]string, 0, len(trustedDevices))
	for _, d := range trustedDevices {
		devices = append(devices, strings.ToLower(strings.TrimSpace(d)))
	}
	return &Verifier{
		avs:            avs,
		trustedDevices: devices,
		logger:         logger.With("module", "verify"),
	}
}

func (v *Verifier) Verify(ctx context.Context, ev *types.Evidence) (*types.VerificationRecord, error) {
	metadataHash, err := MetadataHash(ev.Meta)
	if err != nil {
		return nil, err
	}
	rec := &types.VerificationRecord{
		ContentHash:  ev.ContentHash,
		MetadataHash: metadataHash,
		Status:       types.VerificationPending,
	}
	// placeholder until devices ship signed capture attestations
	rec.DeviceSignature = eth_crypto.Keccak256(ev.ContentHash.Bytes(), metadataHash.Bytes())

	performed := 0.0
	passed := 0.0

	performed += weightMetadata
	rec.MetadataValid = metadataValid(ev.Meta)
	if rec.MetadataValid {
		passed += weightMetadata
	}

	if ev.Meta.DeviceMake != "" || ev.Meta.DeviceModel != "" {
		performed += weightDevice
		rec.DeviceTrusted = v.deviceTrusted(ev.Meta)
		if rec.DeviceTrusted {
			passed += weightDevice
		}
	}

	if v.avs != nil {
		performed += weightAttestation
		taskID, err := v.avs.SubmitTask(ctx, ev.ContentHash, metadataHash, rec.DeviceSignature)
		if err != nil {
			v.logger.Error("attestation submit fail", "hash", ev.ContentHash.Hex(), "err", err)
			rec.AttestationError = err.Error()
			rec.Status = types.VerificationFailed
		} else {
			rec.TaskID = taskID
			rec.AttestationOK = true
			passed += weightAttestation
		}
	}

	if performed > 0 {
		rec.Confidence = passed / performed
	}
	if rec.Status != types.VerificationFailed && rec.AttestationOK {
		rec.Status = types.VerificationPending
	}
	v.logger.Info("verification done", "hash", ev.ContentHash.Hex(),
		"task", rec.TaskID, "confidence", rec.Confidence)
	return rec, nil
}

func metadataValid(meta types.CaptureMetadata) bool {
	if meta.Timestamp.IsZero() {
		return false
	}
	// clock skew tolerance for freshly captured images
	return meta.Timestamp.Before(time.Now().Add(5 * time.Minute))
}

// deviceTrusted matches the normalized "make model" descriptor against the
// allow-listed maker/model patterns.
func (v *Verifier) deviceTrusted(meta types.CaptureMetadata) bool {
	descriptor := strings.ToLower(strings.TrimSpace(meta.DeviceMake + " " + meta.DeviceModel))
	for _, pattern := range v.trustedDevices {
		if pattern != "" && strings.Contains(descriptor, pattern) {
			return true
		}
	}
	return false
}
