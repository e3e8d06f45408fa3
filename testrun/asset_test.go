package testrun

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		assetType AssetType
		want      bool
	}{
		{"image is valid", AssetTypeImage, true},
		{"document is valid", AssetTypeDocument, true},
		{"invalid type", AssetType("invalid"), false},
		{"empty type", AssetType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.assetType.IsValid())
		})
	}
}

func TestAsset_Validate(t *testing.T) {
	tests := []struct {
		name    string
		asset   Asset
		wantErr error
	}{
		{
			name: "valid asset",
			asset: Asset{
				AssetType: AssetTypeImage,
				AssetPath: "admin_dashboard.png",
				FileName:  "admin_dashboard.png",
				FileSize:  1024,
			},
		},
		{
			name: "invalid asset type",
			asset: Asset{
				AssetType: AssetType("video"),
				AssetPath: "admin_dashboard.png",
				FileName:  "admin_dashboard.png",
			},
			wantErr: ErrInvalidAssetType,
		},
		{
			name: "missing asset path",
			asset: Asset{
				AssetType: AssetTypeImage,
				FileName:  "admin_dashboard.png",
			},
			wantErr: ErrInvalidAssetPath,
		},
		{
			name: "missing file name",
			asset: Asset{
				AssetType: AssetTypeDocument,
				AssetPath: "error.html",
			},
			wantErr: ErrInvalidFileName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.asset.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTestRun_AddAsset(t *testing.T) {
	tr := New("landing", "http://localhost:5173")

	err := tr.AddAsset(Asset{AssetType: AssetTypeImage, AssetPath: "hero.png", FileName: "hero.png"})
	require.NoError(t, err)
	require.Len(t, tr.Assets, 1)
	assert.False(t, tr.Assets[0].UploadedAt.IsZero())

	err = tr.AddAsset(Asset{AssetType: AssetTypeImage})
	assert.ErrorIs(t, err, ErrInvalidAssetPath)
	assert.Len(t, tr.Assets, 1)
}
