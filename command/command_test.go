package command

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/Zereker/dock/nsof"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameLengthBoundaries(t *testing.T) {
	cases := []struct {
		n, pad int
	}{
		{0, 0}, {1, 3}, {2, 2}, {3, 1}, {4, 0}, {442, 2},
	}
	for _, tc := range cases {
		data, err := Marshal(NewRaw(TagEntry, bytes.Repeat([]byte{0xAB}, tc.n)))
		require.NoError(t, err)
		assert.Equal(t, HeaderLen+tc.n+tc.pad, len(data), "payload %d", tc.n)
		assert.Equal(t, len(data), FrameLength(tc.n))
		assert.Equal(t, make([]byte, tc.pad), data[HeaderLen+tc.n:])
	}
	assert.Equal(t, 444, FrameLength(442)-HeaderLen)
}

func TestMarshalLayout(t *testing.T) {
	data, err := Marshal(NewLong(TagRequestToDock, ProtocolVersion1))
	require.NoError(t, err)
	assert.Equal(t, []byte("newtdockrtdk\x00\x00\x00\x04\x00\x00\x00\x09"), data)

	data, err = Marshal(NewEmpty(TagHello))
	require.NoError(t, err)
	assert.Equal(t, []byte("newtdockhelo\x00\x00\x00\x00"), data)
}

func TestReadSkipsPadding(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, NewText(TagSetCurrentSoup, "Names")))
	require.NoError(t, Write(&buf, NewEmpty(TagGetSoupInfo)))

	first, err := Read(&buf, DesktopV1, 0)
	require.NoError(t, err)
	require.IsType(t, &Text{}, first)
	assert.Equal(t, "Names", first.(*Text).Value)

	second, err := Read(&buf, DesktopV1, 0)
	require.NoError(t, err)
	assert.Equal(t, TagGetSoupInfo, second.Tag())

	_, err = Read(&buf, DesktopV1, 0)
	assert.Equal(t, io.EOF, err)
}

func TestReadErrors(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("newtdoc")), DeviceV1, 0)
	assert.Equal(t, io.ErrUnexpectedEOF, err)

	_, err = Read(bytes.NewReader([]byte("oldtdockhelo\x00\x00\x00\x00")), DeviceV1, 0)
	assert.True(t, errors.Is(err, ErrBadPreamble))

	_, err = Read(bytes.NewReader([]byte("newtdockentr\x00\x00\x10\x00")), DeviceV1, 64)
	assert.True(t, errors.Is(err, ErrPayloadTooLarge))

	_, err = Read(bytes.NewReader([]byte("newtdockdres\x00\x00\x00\x04\x00\x00")), DeviceV1, 0)
	assert.Equal(t, io.ErrUnexpectedEOF, err)

	_, err = Read(bytes.NewReader([]byte("newtdockdres\x00\x00\x00\x02\x00\x00\x00\x00")), DeviceV1, 0)
	assert.True(t, errors.Is(err, ErrBadPayload))

	_, err = Marshal(NewEmpty("toolong"))
	assert.True(t, errors.Is(err, ErrBadTag))
}

func TestReadMalformedObjectPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, NewRaw(TagEntry, []byte{nsof.Version, 0x7F})))
	require.NoError(t, Write(&buf, NewEmpty(TagHello)))

	_, err := Read(&buf, DeviceV1, 0)
	assert.True(t, errors.Is(err, nsof.ErrUnknownObjectTag))
	assert.True(t, errors.Is(err, nsof.ErrMalformedObject))

	// the bad frame was consumed whole; the stream is still aligned
	next, err := Read(&buf, DeviceV1, 0)
	require.NoError(t, err)
	assert.Equal(t, TagHello, next.Tag())
}

func TestObjectCommandRoundTrip(t *testing.T) {
	entry := nsof.NewFrame()
	entry.Set("name", nsof.NewString("Walter Smith"))
	entry.Set("_uniqueID", nsof.NewInteger(42))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, NewObject(TagEntry, entry)))

	got, err := Read(&buf, DeviceV1, 0)
	require.NoError(t, err)
	obj, ok := got.(*Object)
	require.True(t, ok)
	assert.Equal(t, FromDevice, obj.Direction())
	name, _ := obj.Value.(*nsof.Frame).Get("name")
	assert.Equal(t, "Walter Smith", name.(*nsof.String).Value)
}

func TestNewtonNameRoundTrip(t *testing.T) {
	in := &NewtonName{header: header{TagNewtonName, FromDevice}, Info: []uint32{0x1234, 0x01000000, 0x10003000}, Name: "Walter"}
	data, err := Marshal(in)
	require.NoError(t, err)

	got, err := Read(bytes.NewReader(data), DeviceV1, 0)
	require.NoError(t, err)
	name := got.(*NewtonName)
	assert.Equal(t, in.Info, name.Info)
	assert.Equal(t, "Walter", name.Name)
	assert.Equal(t, uint32(0x10003000), name.Field(MachineType))
	assert.Equal(t, uint32(0), name.Field(TargetProtocol))
}

func TestDesktopInfoRoundTrip(t *testing.T) {
	apps := nsof.NewPlainArray()
	app := nsof.NewFrame()
	app.Set("name", nsof.NewString("dock"))
	app.Set("id", nsof.NewInteger(2))
	app.Set("version", nsof.NewInteger(1))
	apps.Append(app)

	in := NewDesktopInfo()
	in.ProtocolVersion = ProtocolVersion2
	in.DesktopType = DesktopWindows
	in.Key = [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	in.SessionType = SynchronizeSession
	in.AllowSelectiveSync = true
	in.Apps = apps

	data, err := Marshal(in)
	require.NoError(t, err)

	_, err = Read(bytes.NewReader(data), DesktopV1, 0)
	require.NoError(t, err, "v1 keeps unknown tags as raw")

	got, err := Read(bytes.NewReader(data), DesktopV2, 0)
	require.NoError(t, err)
	info := got.(*DesktopInfo)
	assert.Equal(t, in.ProtocolVersion, info.ProtocolVersion)
	assert.Equal(t, in.DesktopType, info.DesktopType)
	assert.Equal(t, in.Key, info.Key)
	assert.Equal(t, in.SessionType, info.SessionType)
	assert.True(t, info.AllowSelectiveSync)
	assert.Equal(t, 1, info.Apps.(*nsof.Array).Len())
}

func TestTagValue(t *testing.T) {
	assert.Equal(t, TagEntry, TagFromValue(TagValue(TagEntry)))
	assert.Equal(t, int32(0x656E7472), TagValue(TagEntry))
}
