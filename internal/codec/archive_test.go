package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestArchiveRoundTripsMembers(t *testing.T) {
	members := []ArchiveMember{
		{Name: "MathHelpers.bc", UID: 1000, GID: 1000, Mode: 0644, ModTime: time.Unix(1700000000, 0), Data: []byte("bitcode-a"), Symbols: []string{"add", "sub"}},
		{Name: "io_utils.bc", UID: 1000, GID: 1000, Mode: 0644, ModTime: time.Unix(1700000001, 0), Data: []byte("bitcode-bb")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, members))

	got, err := ReadArchive(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "math_helpers.bc", got[0].Name)
	require.Equal(t, []byte("bitcode-a"), got[0].Data)
	require.Equal(t, "io_utils.bc", got[1].Name)
	require.Equal(t, []byte("bitcode-bb"), got[1].Data)
}

func TestNormalizeMemberName(t *testing.T) {
	require.Equal(t, "my_module.bc", NormalizeMemberName("MyModule"))
	require.Equal(t, "my_module.bc", NormalizeMemberName("MyModule.bc"))
}

func TestReadArchiveRejectsBadMagic(t *testing.T) {
	_, err := ReadArchive(bytes.NewReader([]byte("not-an-archive-----")))
	require.Error(t, err)
}
