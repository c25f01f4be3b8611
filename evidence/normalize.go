package evidence

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"cosmossdk.io/log"
	"github.com/disintegration/imaging"
	eth_crypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/narasim-teja/tars/types"
)

// MaxPayloadBytes is the ceiling for the canonical encoding. Downstream
// transports carry the image base64-encoded, which adds roughly 37%
// overhead, so 5 MiB here keeps the encoded form under their limits.
const MaxPayloadBytes = 5 * 1024 * 1024

var (
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrUndecodable     = errors.New("image undecodable")
)

// qualityLadder and dimensionCaps are the fixed reduction steps applied
// when the canonical encoding exceeds MaxPayloadBytes.
var (
	qualityLadder = []int{85, 75, 60, 45, 30}
	dimensionCaps = []int{0, 1200, 800, 600}
)

// Normalizer converts raw submitted bytes into canonical evidence: decoded,
// re-encoded as JPEG under the payload ceiling, with capture metadata
// extracted. It is a pure transform apart from logging.
type Normalizer struct {
	logger log.Logger
}

func NewNormalizer(logger log.Logger) *Normalizer {
	return &Normalizer{logger: logger.With("module", "evidence")}
}

// Normalize decodes raw image bytes and produces canonical evidence. hint
// is an optional source-format label used only for diagnostics; the
// decoder sniffs the actual encoding.
func (n *Normalizer) Normalize(raw []byte, hint string) (*types.Evidence, error) {
	if len(raw) == 0 {
		return nil, types.ErrNoEvidence
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		n.logger.Error("decode image fail", "hint", hint, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	meta := extractMetadata(raw)

	canonical, err := n.reencode(img)
	if err != nil {
		return nil, err
	}

	ev := &types.Evidence{
		ContentHash: eth_crypto.Keccak256Hash(canonical),
		Canonical:   canonical,
		Format:      "jpeg",
		Meta:        meta,
	}
	if ev.Meta.Location != nil {
		if err := ev.Meta.Location.Validate(); err != nil {
			return nil, err
		}
	}
	n.logger.Debug("normalized evidence", "hash", ev.ContentHash.Hex(), "bytes", len(canonical), "hint", hint)
	return ev, nil
}

// reencode walks the fixed reduction ladder until the JPEG encoding fits
// under MaxPayloadBytes. The ladder floor failing is ErrPayloadTooLarge.
func (n *Normalizer) reencode(img image.Image) ([]byte, error) {
	for i, cap := range dimensionCaps {
		scaled := img
		if cap > 0 {
			scaled = imaging.Fit(img, cap, cap, imaging.Lanczos)
		}
		for j, quality := range qualityLadder {
			// first pass tries full quality at full size; later caps skip
			// the qualities already proven too large at bigger dimensions
			if j < i {
				continue
			}
			buf, err := encodeJPEG(scaled, quality)
			if err != nil {
				return nil, err
			}
			if len(buf) <= MaxPayloadBytes {
				if i > 0 || j > 0 {
					n.logger.Info("reduced payload", "cap", cap, "quality", quality, "bytes", len(buf))
				}
				return buf, nil
			}
		}
	}
	return nil, ErrPayloadTooLarge
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
