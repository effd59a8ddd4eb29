package backup

import (
	"errors"
	"fmt"
	"os"

	"github.com/grantbirki/ibackup-locate/internal/utils"
	"howett.net/plist"
)

// InfoPlistVersionKey is the Info.plist key holding the device's iOS version
const InfoPlistVersionKey = "Product Version"

// Errors returned when Info.plist cannot be used to check compatibility
var (
	ErrInfoPlistNotFound   = errors.New("Info.plist not found")
	ErrInfoPlistUnreadable = errors.New("Info.plist could not be read")
	ErrInfoPlistMalformed  = errors.New("Info.plist is malformed")
)

// InfoPlist represents the device metadata fields of a backup's Info.plist
type InfoPlist struct {
	DeviceName       string `plist:"Device Name"`
	ProductType      string `plist:"Product Type"`
	ProductVersion   string `plist:"Product Version"`
	BuildVersion     string `plist:"Build Version"`
	UniqueIdentifier string `plist:"Unique Identifier"`
}

// ManifestPlist represents key fields from Manifest.plist
type ManifestPlist struct {
	IsEncrypted bool   `plist:"IsEncrypted"`
	Version     string `plist:"Version"`
}

// ReadInfoPlist decodes Info.plist from the backup directory. Both XML and binary plists are accepted.
func ReadInfoPlist(backupPath string) (*InfoPlist, error) {
	path := utils.CreateBackupPaths(backupPath).InfoPlist()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrInfoPlistNotFound, backupPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInfoPlistUnreadable, err)
	}

	var info InfoPlist
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInfoPlistMalformed, err)
	}

	return &info, nil
}

// ReadManifestPlist decodes Manifest.plist from the backup directory
func ReadManifestPlist(backupPath string) (*ManifestPlist, error) {
	path := utils.CreateBackupPaths(backupPath).ManifestPlist()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read Manifest.plist: %w", err)
	}

	var manifest ManifestPlist
	if _, err := plist.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse Manifest.plist: %w", err)
	}

	return &manifest, nil
}

// Version parses the Product Version field
func (i *InfoPlist) Version() (Version, error) {
	if i.ProductVersion == "" {
		return Version{}, fmt.Errorf("%w: key %q missing", ErrInfoPlistMalformed, InfoPlistVersionKey)
	}
	v, err := ParseVersion(i.ProductVersion)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %v", ErrInfoPlistMalformed, err)
	}
	return v, nil
}

// CheckCompatible reports whether the backup was made by a supported iOS version.
// A missing, unreadable or malformed Info.plist yields (false, nil, err); an
// unsupported version yields (false, &version, nil).
func CheckCompatible(backupPath string) (bool, *Version, error) {
	ok, v, _, err := CheckBackupInfo(backupPath)
	return ok, v, err
}

// CheckBackupInfo is CheckCompatible that also returns the decoded Info.plist.
// The plist is returned whenever it decodes, even if its version is missing or unsupported.
func CheckBackupInfo(backupPath string) (bool, *Version, *InfoPlist, error) {
	info, err := ReadInfoPlist(backupPath)
	if err != nil {
		return false, nil, nil, err
	}

	v, err := info.Version()
	if err != nil {
		return false, nil, info, err
	}

	return MinimumSupportedVersion.LessOrEqual(v), &v, info, nil
}
