package testrun

import (
	"errors"
	"time"
)

var (
	// ErrInvalidAssetType is returned when asset type is invalid.
	ErrInvalidAssetType = errors.New("invalid asset type")

	// ErrInvalidAssetPath is returned when asset_path is empty.
	ErrInvalidAssetPath = errors.New("asset_path is required")

	// ErrInvalidFileName is returned when file_name is empty.
	ErrInvalidFileName = errors.New("file_name is required")
)

// AssetType represents the type of asset.
type AssetType string

const (
	AssetTypeImage    AssetType = "image"
	AssetTypeDocument AssetType = "document"
)

// IsValid checks if the asset type is valid.
func (at AssetType) IsValid() bool {
	switch at {
	case AssetTypeImage, AssetTypeDocument:
		return true
	default:
		return false
	}
}

// Asset is an evidence file written by the run.
type Asset struct {
	AssetType AssetType `json:"asset_type"`

	// AssetPath is the path inside the evidence storage; Location is where a
	// human can open it (a local path or a presigned URL).
	AssetPath string `json:"asset_path"`
	Location  string `json:"location,omitempty"`

	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	MimeType    string    `json:"mime_type,omitempty"`
	Description string    `json:"description,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Validate checks if the asset has valid required fields.
func (a *Asset) Validate() error {
	if !a.AssetType.IsValid() {
		return ErrInvalidAssetType
	}
	if a.AssetPath == "" {
		return ErrInvalidAssetPath
	}
	if a.FileName == "" {
		return ErrInvalidFileName
	}
	return nil
}

// AddAsset validates and records an evidence file.
func (tr *TestRun) AddAsset(a Asset) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.UploadedAt.IsZero() {
		a.UploadedAt = time.Now()
	}
	tr.Assets = append(tr.Assets, a)
	return nil
}
