package evidence

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"
)

func testImageJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8((x + y) % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func TestNormalizeRejectsEmptyAndGarbage(t *testing.T) {
	require := require.New(t)
	n := NewNormalizer(log.NewNopLogger())

	_, err := n.Normalize(nil, "")
	require.Error(err)

	_, err = n.Normalize([]byte("definitely not an image"), "photo.jpg")
	require.ErrorIs(err, ErrUndecodable)
}

func TestNormalizeDeterministicHash(t *testing.T) {
	require := require.New(t)
	n := NewNormalizer(log.NewNopLogger())
	raw := testImageJPEG(t, 320, 240)

	ev1, err := n.Normalize(raw, "a.jpg")
	require.NoError(err)
	ev2, err := n.Normalize(raw, "b.jpg")
	require.NoError(err)

	require.Equal(ev1.ContentHash, ev2.ContentHash)
	require.Equal(ev1.Canonical, ev2.Canonical)
	require.Equal("jpeg", ev1.Format)
	require.LessOrEqual(len(ev1.Canonical), MaxPayloadBytes)
	require.NoError(ev1.Validate())
}

func TestNormalizeMetadataFallbackTimestamp(t *testing.T) {
	require := require.New(t)
	n := NewNormalizer(log.NewNopLogger())

	// plain encode carries no capture record, timestamp falls back
	ev, err := n.Normalize(testImageJPEG(t, 64, 64), "")
	require.NoError(err)
	require.False(ev.Meta.Timestamp.IsZero())
	require.Nil(ev.Meta.Location)
}

func TestNormalizeAcceptsPNG(t *testing.T) {
	require := require.New(t)
	n := NewNormalizer(log.NewNopLogger())

	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	var buf bytes.Buffer
	require.NoError(png.Encode(&buf, img))

	ev, err := n.Normalize(buf.Bytes(), "shot.png")
	require.NoError(err)
	// canonical form is always JPEG regardless of the source encoding
	require.Equal("jpeg", ev.Format)
	require.Equal([]byte{0xff, 0xd8}, ev.Canonical[:2])
}

func TestReencodeLadderReducesLargeImages(t *testing.T) {
	require := require.New(t)
	n := NewNormalizer(log.NewNopLogger())

	// noisy enough that full-quality encoding exceeds typical sizes at
	// this resolution, exercising at least one ladder step on the output
	raw := testImageJPEG(t, 2400, 1800)
	ev, err := n.Normalize(raw, "large.jpg")
	require.NoError(err)
	require.LessOrEqual(len(ev.Canonical), MaxPayloadBytes)
	require.NotEmpty(ev.ContentHash)
}
