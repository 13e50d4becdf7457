package gpmf

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/gpmf-plugin/testutil"
)

// deviceFixture is a realistic two-level capture: one device containing one
// sensor stream.
func deviceFixture() []byte {
	return testutil.Group("DEVC",
		testutil.Rec("DVID", 'L', 4, 1, testutil.U32(1001)),
		testutil.Rec("DVNM", 'c', 1, 6, []byte("Camera")),
		testutil.Group("STRM",
			testutil.Rec("STNM", 'c', 1, 5, []byte("Accel")),
			testutil.Rec("SIUN", 'c', 5, 1, []byte{'m', '/', 's', 0xB2}),
			testutil.Rec("SCAL", 's', 2, 1, testutil.I16(418)),
			testutil.Rec("TSMP", 'L', 4, 1, testutil.U32(100)),
			testutil.Rec("ACCL", 's', 6, 2, testutil.I16(1, 2, 3, 4, 5, 6)),
		),
	)
}

func TestDecode_DeviceTree(t *testing.T) {
	records, err := Decode(deviceFixture())
	require.NoError(t, err)
	require.Len(t, records, 1)

	dev, ok := records[0].Value.(Container)
	require.True(t, ok, "DEVC should decode to a Container")
	require.Len(t, dev, 3)
	assert.Equal(t, DeviceID(1001), dev[0].Value)
	assert.Equal(t, Text("Camera"), dev[1].Value)

	strm, ok := dev[2].Value.(Container)
	require.True(t, ok, "STRM should decode to a Container")
	require.Len(t, strm, 5)
	assert.Equal(t, Text("Accel"), strm[0].Value)
	assert.Equal(t, Unit("m/s2"), strm[1].Value)
	assert.Equal(t, ScaleFactor{Divisor: 418}, strm[2].Value)
	assert.Equal(t, TotalSamples(100), strm[3].Value)
	assert.Equal(t, Triplets{{1, 2, 3}, {4, 5, 6}}, strm[4].Value)
}

func TestDecode_MultipleTopLevelRecordsKeepOrder(t *testing.T) {
	buf := testutil.Cat(
		testutil.Rec("TSMP", 'L', 4, 1, testutil.U32(1)),
		testutil.Rec("TSMP", 'L', 4, 1, testutil.U32(2)),
		testutil.Rec("TSMP", 'L', 4, 1, testutil.U32(3)),
	)
	records, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, TotalSamples(i+1), r.Value)
	}
}

func TestDecode_EmptyInputIsEmptyTree(t *testing.T) {
	records, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDecode_Deterministic(t *testing.T) {
	buf := deviceFixture()
	first, err := Decode(buf)
	require.NoError(t, err)
	second, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecode_PaddingContentIsIgnored(t *testing.T) {
	// Same record padded with 0x00 and with 0xFF must decode identically.
	zero := testutil.RecPad("DVNM", 'c', 1, 5, []byte("Hero5"), 0x00)
	junk := testutil.RecPad("DVNM", 'c', 1, 5, []byte("Hero5"), 0xFF)
	require.NotEqual(t, zero, junk)

	a, err := Decode(zero)
	require.NoError(t, err)
	b, err := Decode(junk)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecode_MissingPaddingIsInsufficientData(t *testing.T) {
	rec := testutil.Rec("DVNM", 'c', 1, 5, []byte("Hero5"))
	_, err := Decode(rec[:len(rec)-1])
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestDecode_ContainerExactness(t *testing.T) {
	t.Run("single child filling the sub-buffer exactly", func(t *testing.T) {
		// One 8-byte child: a header-only unknown record with zero payload.
		child := testutil.Rec("ABCD", '?', 1, 0, nil)
		require.Len(t, child, 8)

		records, err := Decode(testutil.Group("STRM", child))
		require.NoError(t, err)
		require.Len(t, records, 1)

		c, ok := records[0].Value.(Container)
		require.True(t, ok)
		require.Len(t, c, 1)
		assert.Equal(t, Unknown{Label: "ABCD", Raw: []byte{}}, c[0].Value)
	})

	t.Run("nested length cutting a child short fails", func(t *testing.T) {
		// Declare 12 nested bytes but the child record needs 16.
		child := testutil.Rec("TSMP", 'L', 4, 1, testutil.U32(9))
		require.Len(t, child, 12)
		buf := testutil.Rec("STRM", 0, 1, 8, child[:8])
		_, err := Decode(buf)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("empty container decodes to zero children", func(t *testing.T) {
		records, err := Decode(testutil.Rec("DEVC", 0, 1, 0, nil))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, Container(nil), records[0].Value)
	})

	t.Run("container with non-nested tag is a mismatch", func(t *testing.T) {
		_, err := Decode(testutil.Rec("DEVC", 'L', 4, 1, testutil.U32(1)))
		assert.ErrorIs(t, err, ErrFormatMismatch)
	})
}

func TestDecode_FailureInsideContainerAbortsEverything(t *testing.T) {
	buf := testutil.Cat(
		testutil.Group("DEVC",
			testutil.Rec("DVID", 'L', 4, 1, testutil.U32(1)),
			// Wrong tag for ACCL deep inside the tree.
			testutil.Rec("ACCL", 'L', 6, 1, testutil.I16(1, 2, 3)),
		),
		testutil.Rec("TSMP", 'L', 4, 1, testutil.U32(5)),
	)
	records, err := Decode(buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormatMismatch)
	assert.Nil(t, records, "no partial output on failure")

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, KeyAccel, de.Key)
}

func TestDecode_DepthGuard(t *testing.T) {
	// STRM nested in STRM nested in STRM... deeper than the limit.
	buf := testutil.Rec("TSMP", 'L', 4, 1, testutil.U32(1))
	for i := 0; i < 5; i++ {
		buf = testutil.Group("STRM", buf)
	}

	_, err := NewDecoder(WithMaxDepth(3)).Decode(buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormatMismatch)

	// The default limit comfortably covers the documented two levels.
	_, err = NewDecoder().Decode(buf)
	assert.NoError(t, err)
}

func TestDecode_ObserverSeesEveryRecordInOrder(t *testing.T) {
	type seen struct {
		depth int
		key   Key
	}
	var got []seen
	dec := NewDecoder(WithObserver(func(depth int, r Record) {
		got = append(got, seen{depth, r.Key})
	}))

	_, err := dec.Decode(deviceFixture())
	require.NoError(t, err)

	want := []seen{
		{1, KeyDeviceID},
		{1, KeyDeviceName},
		{2, KeyStreamName},
		{2, KeyUnits},
		{2, KeyScale},
		{2, KeyTotalSamples},
		{2, KeyAccel},
		{1, KeyStream},
		{0, KeyDevice},
	}
	assert.Equal(t, want, got)
}

func TestDecode_ErrorReportsAbsoluteOffset(t *testing.T) {
	good := testutil.Rec("TSMP", 'L', 4, 1, testutil.U32(1))
	bad := testutil.Rec("ACCL", 'f', 6, 1, testutil.I16(1, 2, 3))
	_, err := Decode(testutil.Cat(good, bad))
	require.Error(t, err)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, len(good), de.Offset)
	assert.Contains(t, de.Error(), "ACCL")
}

func TestDecoder_ConcurrentUse(t *testing.T) {
	dec := NewDecoder(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	buf := deviceFixture()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				records, err := dec.Decode(buf)
				assert.NoError(t, err)
				assert.Len(t, records, 1)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "ACCL", KeyAccel.String())
	assert.Equal(t, "DEVC", KeyDevice.String())

	raw := Key{0x00, 'A', 0xFF, 'B'}
	assert.Equal(t, "0x0041ff42", raw.String())
}
