package media

// AssetType identifies a class of stored binary, mapped to a subdirectory of
// the media storage root.
type AssetType string

const (
	AssetTypeUpload    AssetType = "uploads"    // original indexed images
	AssetTypeThumbnail AssetType = "thumbnails" // generated thumbnails
	AssetTypeQuery     AssetType = "queries"    // stored search query images
	AssetTypeExport    AssetType = "exports"    // generated export artifacts
)
