package command

import (
	"sort"
)

// Def describes one registered command.
type Def struct {
	Tag       Tag
	Direction Direction
	New       func() Command
}

// Registry maps tags to commands for one direction of one protocol
// version. A registry is never modified after it is built, so it is safe
// to share between pipes.
type Registry struct {
	dir     Direction
	version int
	defs    map[Tag]Def
}

// NewRegistry builds a registry of the commands in defs that dir may
// send. Bidirectional commands belong to both directions.
func NewRegistry(dir Direction, version int, defs ...Def) *Registry {
	r := &Registry{dir: dir, version: version, defs: make(map[Tag]Def, len(defs))}
	r.add(defs)
	return r
}

// Extend returns a new registry holding every entry of base, then defs
// added on top. Entries in defs replace base entries with the same tag.
func Extend(base *Registry, version int, defs ...Def) *Registry {
	r := &Registry{dir: base.dir, version: version, defs: make(map[Tag]Def, len(base.defs)+len(defs))}
	for tag, def := range base.defs {
		r.defs[tag] = def
	}
	r.add(defs)
	return r
}

func (r *Registry) add(defs []Def) {
	for _, def := range defs {
		if def.Direction&r.dir != 0 {
			r.defs[def.Tag] = def
		}
	}
}

// Direction returns the sending side this registry decodes.
func (r *Registry) Direction() Direction { return r.dir }

// Version returns the protocol version of the registry.
func (r *Registry) Version() int { return r.version }

// Lookup returns the definition registered for tag.
func (r *Registry) Lookup(tag Tag) (Def, bool) {
	def, ok := r.defs[tag]
	return def, ok
}

// New returns an empty command for tag. Unregistered tags yield a *Raw.
func (r *Registry) New(tag Tag) Command {
	if def, ok := r.defs[tag]; ok {
		return def.New()
	}
	return &Raw{header: header{tag, r.dir}}
}

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []Tag {
	tags := make([]Tag, 0, len(r.defs))
	for tag := range r.defs {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func emptyDef(tag Tag, dir Direction) Def {
	return Def{tag, dir, func() Command { return &Empty{header{tag, dir}} }}
}

func longDef(tag Tag, dir Direction) Def {
	return Def{tag, dir, func() Command { return &Long{header: header{tag, dir}} }}
}

func textDef(tag Tag, dir Direction) Def {
	return Def{tag, dir, func() Command { return &Text{header: header{tag, dir}} }}
}

func keyDef(tag Tag, dir Direction) Def {
	return Def{tag, dir, func() Command { return &Key{header: header{tag, dir}} }}
}

func objectDef(tag Tag, dir Direction) Def {
	return Def{tag, dir, func() Command { return &Object{header: header{tag, dir}} }}
}

func rawDef(tag Tag, dir Direction) Def {
	return Def{tag, dir, func() Command { return &Raw{header: header{tag, dir}} }}
}

var v1Defs = []Def{
	longDef(TagResult, Bidirectional),
	longDef(TagUnknownCommand, Bidirectional),
	emptyDef(TagDisconnect, Bidirectional),
	emptyDef(TagHello, Bidirectional),
	keyDef(TagPassword, Bidirectional),
	emptyDef(TagOperationDone, Bidirectional),
	emptyDef(TagOperationCanceled, Bidirectional),
	emptyDef(TagOpCanceledAck, Bidirectional),
	rawDef(TagTest, Bidirectional),

	longDef(TagRequestToDock, FromDevice),
	{TagNewtonName, FromDevice, func() Command { return &NewtonName{header: header{TagNewtonName, FromDevice}} }},
	objectDef(TagEntry, FromDevice),
	objectDef(TagSoupNames, FromDevice),
	objectDef(TagSoupInfo, FromDevice),
	objectDef(TagSoupIDs, FromDevice),
	objectDef(TagChangedIDs, FromDevice),
	objectDef(TagStoreNames, FromDevice),
	longDef(TagAddedID, FromDevice),
	objectDef(TagPackageIDList, FromDevice),
	objectDef(TagPackage, FromDevice),
	objectDef(TagInheritance, FromDevice),
	objectDef(TagPatches, FromDevice),
	objectDef(TagRefResult, FromDevice),

	longDef(TagInitiateDocking, FromDesktop),
	longDef(TagWhichIcons, FromDesktop),
	longDef(TagSetTimeout, FromDesktop),
	emptyDef(TagGetStoreNames, FromDesktop),
	objectDef(TagSetCurrentStore, FromDesktop),
	emptyDef(TagGetSoupNames, FromDesktop),
	textDef(TagSetCurrentSoup, FromDesktop),
	emptyDef(TagGetSoupInfo, FromDesktop),
	emptyDef(TagSendSoup, FromDesktop),
	emptyDef(TagGetSoupIDs, FromDesktop),
	longDef(TagReturnEntry, FromDesktop),
	objectDef(TagAddEntry, FromDesktop),
	objectDef(TagDeleteEntries, FromDesktop),
	rawDef(TagLoadPackage, FromDesktop),
	emptyDef(TagGetPackageIDs, FromDesktop),
	emptyDef(TagBackupPackages, FromDesktop),
	longDef(TagLastSyncTime, FromDesktop),
	emptyDef(TagGetInheritance, FromDesktop),
	emptyDef(TagGetPatches, FromDesktop),
}

var v2Defs = []Def{
	{TagNewtonInfo, FromDevice, func() Command { return &NewtonInfo{header: header{TagNewtonInfo, FromDevice}} }},
	objectDef(TagAppNames, FromDevice),
	objectDef(TagSyncOptions, FromDevice),
	objectDef(TagCallResult, FromDevice),
	objectDef(TagDefaultStore, FromDevice),
	objectDef(TagBackupIDs, FromDevice),
	emptyDef(TagBackupSoupDone, FromDevice),

	{TagDesktopInfo, FromDesktop, func() Command { return &DesktopInfo{header: header{TagDesktopInfo, FromDesktop}} }},
	longDef(TagGetAppNames, FromDesktop),
	emptyDef(TagGetSyncOptions, FromDesktop),
	emptyDef(TagGetDefaultStore, FromDesktop),
	objectDef(TagCallGlobalFunc, FromDesktop),
	objectDef(TagCallRootMethod, FromDesktop),
	objectDef(TagSetStoreGetNames, FromDesktop),
}

// Built-in registries. The version 2 tables are the version 1 tables with
// the version 2 commands added.
var (
	DeviceV1  = NewRegistry(FromDevice, ProtocolVersion1, v1Defs...)
	DesktopV1 = NewRegistry(FromDesktop, ProtocolVersion1, v1Defs...)
	DeviceV2  = Extend(DeviceV1, ProtocolVersion2, v2Defs...)
	DesktopV2 = Extend(DesktopV1, ProtocolVersion2, v2Defs...)
)

var directions = func() map[Tag]Direction {
	m := make(map[Tag]Direction)
	for _, defs := range [][]Def{v1Defs, v2Defs} {
		for _, def := range defs {
			m[def.Tag] |= def.Direction
		}
	}
	return m
}()

// DirectionOf returns the direction of a built-in tag, or 0 when the tag
// is not known.
func DirectionOf(tag Tag) Direction {
	return directions[tag]
}

// ForVersion returns the built-in registry decoding commands sent by dir
// under the given protocol version.
func ForVersion(version int, dir Direction) *Registry {
	switch {
	case version >= ProtocolVersion2 && dir == FromDesktop:
		return DesktopV2
	case version >= ProtocolVersion2:
		return DeviceV2
	case dir == FromDesktop:
		return DesktopV1
	}
	return DeviceV1
}
