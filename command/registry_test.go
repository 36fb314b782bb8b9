package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDirections(t *testing.T) {
	_, ok := DeviceV1.Lookup(TagRequestToDock)
	assert.True(t, ok)
	_, ok = DesktopV1.Lookup(TagRequestToDock)
	assert.False(t, ok)

	_, ok = DesktopV1.Lookup(TagInitiateDocking)
	assert.True(t, ok)
	_, ok = DeviceV1.Lookup(TagInitiateDocking)
	assert.False(t, ok)

	for _, reg := range []*Registry{DeviceV1, DesktopV1, DeviceV2, DesktopV2} {
		for _, tag := range []Tag{TagResult, TagUnknownCommand, TagDisconnect, TagHello} {
			def, ok := reg.Lookup(tag)
			require.True(t, ok, "%s in %s v%d", tag, reg.Direction(), reg.Version())
			assert.Equal(t, Bidirectional, def.Direction)
		}
	}

	assert.Equal(t, Bidirectional, DirectionOf(TagResult))
	assert.Equal(t, FromDevice, DirectionOf(TagEntry))
	assert.Equal(t, FromDesktop, DirectionOf(TagDesktopInfo))
	assert.Equal(t, Direction(0), DirectionOf("zzzz"))
}

func TestVersionTwoExtendsVersionOne(t *testing.T) {
	for _, tag := range DeviceV1.Tags() {
		_, ok := DeviceV2.Lookup(tag)
		assert.True(t, ok, "v2 is missing %s", tag)
	}
	for _, tag := range DesktopV1.Tags() {
		_, ok := DesktopV2.Lookup(tag)
		assert.True(t, ok, "v2 is missing %s", tag)
	}

	_, ok := DeviceV1.Lookup(TagNewtonInfo)
	assert.False(t, ok)
	_, ok = DeviceV2.Lookup(TagNewtonInfo)
	assert.True(t, ok)

	assert.Same(t, DeviceV2, ForVersion(ProtocolVersion2, FromDevice))
	assert.Same(t, DesktopV1, ForVersion(ProtocolVersion1, FromDesktop))
}

func TestExtendOverridesWithoutTouchingBase(t *testing.T) {
	override := Def{TagEntry, FromDevice, func() Command { return &Raw{header: header{TagEntry, FromDevice}} }}
	custom := Extend(DeviceV2, 11, override)

	assert.IsType(t, &Raw{}, custom.New(TagEntry))
	assert.IsType(t, &Object{}, DeviceV2.New(TagEntry))
	assert.Equal(t, 11, custom.Version())
	assert.Equal(t, len(DeviceV2.Tags()), len(custom.Tags()))
}

func TestUnknownTagYieldsRaw(t *testing.T) {
	c := DeviceV1.New("wxyz")
	raw, ok := c.(*Raw)
	require.True(t, ok)
	assert.Equal(t, Tag("wxyz"), raw.Tag())
	assert.Equal(t, FromDevice, raw.Direction())
}

func TestDesktopInfoConstructors(t *testing.T) {
	c := DesktopV2.New(TagDesktopInfo)
	require.IsType(t, &DesktopInfo{}, c)
	assert.Equal(t, TagDesktopInfo, c.Tag())
	assert.Equal(t, FromDesktop, c.Direction())

	info := NewDesktopInfo()
	assert.Equal(t, c.Direction(), info.Direction())
	assert.Equal(t, c.Tag(), info.Tag())
}
