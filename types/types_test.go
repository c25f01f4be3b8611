package types

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestGeoPointValidate(t *testing.T) {
	require := require.New(t)

	require.NoError(GeoPoint{Latitude: 0, Longitude: 0}.Validate())
	require.NoError(GeoPoint{Latitude: 90, Longitude: 180}.Validate())
	require.NoError(GeoPoint{Latitude: -90, Longitude: -180}.Validate())

	require.ErrorIs(GeoPoint{Latitude: 90.01, Longitude: 0}.Validate(), ErrBadCoordinates)
	require.ErrorIs(GeoPoint{Latitude: -91, Longitude: 0}.Validate(), ErrBadCoordinates)
	require.ErrorIs(GeoPoint{Latitude: 0, Longitude: 180.5}.Validate(), ErrBadCoordinates)
	require.ErrorIs(GeoPoint{Latitude: 0, Longitude: -180.5}.Validate(), ErrBadCoordinates)
}

func TestEvidenceValidate(t *testing.T) {
	require := require.New(t)

	var nilEv *Evidence
	require.ErrorIs(nilEv.Validate(), ErrNoEvidence)

	ev := &Evidence{}
	require.ErrorIs(ev.Validate(), ErrNoEvidence)

	ev.Canonical = []byte{0xff, 0xd8}
	require.ErrorIs(ev.Validate(), ErrNoContentHash)

	ev.ContentHash = common.HexToHash("0x01")
	require.NoError(ev.Validate())

	ev.Meta = CaptureMetadata{
		Timestamp: time.Now(),
		Location:  &GeoPoint{Latitude: 120, Longitude: 0},
	}
	require.ErrorIs(ev.Validate(), ErrBadCoordinates)

	ev.Meta.Location = &GeoPoint{Latitude: 12.97, Longitude: 77.59}
	require.NoError(ev.Validate())
}
