package command

// Protocol versions announced during docking.
const (
	ProtocolVersion1 = 9
	ProtocolVersion2 = 10
)

// Session types carried by TagInitiateDocking.
const (
	NoSession          int32 = 0
	SettingUpSession   int32 = 1
	SynchronizeSession int32 = 2
	RestoreSession     int32 = 3
	LoadPackageSession int32 = 4
	TestCommSession    int32 = 5
	LoadPatchSession   int32 = 6
	UpdatingStores     int32 = 7
)

// Sent by either side.
const (
	TagResult            Tag = "dres"
	TagUnknownCommand    Tag = "unkn"
	TagDisconnect        Tag = "disc"
	TagHello             Tag = "helo"
	TagPassword          Tag = "pass"
	TagOperationDone     Tag = "opdn"
	TagOperationCanceled Tag = "opca"
	TagOpCanceledAck     Tag = "ocaa"
	TagTest              Tag = "test"
)

// Sent by the device.
const (
	TagRequestToDock  Tag = "rtdk"
	TagNewtonName     Tag = "name"
	TagNewtonInfo     Tag = "ninf"
	TagEntry          Tag = "entr"
	TagSoupNames      Tag = "soup"
	TagSoupInfo       Tag = "sinf"
	TagSoupIDs        Tag = "sids"
	TagChangedIDs     Tag = "cids"
	TagStoreNames     Tag = "stor"
	TagAddedID        Tag = "adid"
	TagPackageIDList  Tag = "pids"
	TagPackage        Tag = "apkg"
	TagInheritance    Tag = "dinh"
	TagPatches        Tag = "patc"
	TagRefResult      Tag = "ref "
	TagAppNames       Tag = "appn"
	TagSyncOptions    Tag = "sopt"
	TagCallResult     Tag = "cres"
	TagDefaultStore   Tag = "dfst"
	TagBackupIDs      Tag = "bids"
	TagBackupSoupDone Tag = "bsdn"
)

// Sent by the desktop.
const (
	TagInitiateDocking  Tag = "dock"
	TagDesktopInfo      Tag = "dinf"
	TagWhichIcons       Tag = "wicn"
	TagSetTimeout       Tag = "stim"
	TagGetStoreNames    Tag = "gsto"
	TagSetCurrentStore  Tag = "ssto"
	TagGetSoupNames     Tag = "gets"
	TagSetCurrentSoup   Tag = "stsp"
	TagGetSoupInfo      Tag = "gsin"
	TagSendSoup         Tag = "snds"
	TagGetSoupIDs       Tag = "gids"
	TagReturnEntry      Tag = "rete"
	TagAddEntry         Tag = "adde"
	TagDeleteEntries    Tag = "dele"
	TagLoadPackage      Tag = "lpkg"
	TagGetPackageIDs    Tag = "gpid"
	TagBackupPackages   Tag = "bpkg"
	TagLastSyncTime     Tag = "stme"
	TagGetInheritance   Tag = "ginh"
	TagGetPatches       Tag = "gpat"
	TagGetAppNames      Tag = "gapp"
	TagGetSyncOptions   Tag = "gsyn"
	TagGetDefaultStore  Tag = "gdfs"
	TagCallGlobalFunc   Tag = "cgfn"
	TagCallRootMethod   Tag = "crmf"
	TagSetStoreGetNames Tag = "ssgn"
)
