// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

// UserSettingsSize is the respUserBytes / reqWriteUserBytes payload width
const UserSettingsSize = 6

// UserSettings holds the detector's persisted user bytes.
//
// A set bit is the factory default for every feature; accessors translate
// the bits into "is the feature enabled" form.
type UserSettings struct {
	Bytes [UserSettingsSize]byte
}

// User byte 0 bits
const (
	userXBand          = 0x01
	userKBand          = 0x02
	userKaBand         = 0x04
	userLaser          = 0x08
	userMuteToMutedVol = 0x10
	userBogeyLockLoud  = 0x20
	userMuteXKRear     = 0x40
	userKuBand         = 0x80
)

// User byte 1 bits
const (
	userEuroMode      = 0x01
	userEuroXBand     = 0x02
	userFilter        = 0x04
	userForceLegacyCD = 0x08
	userCustomSweeps  = 0x10
)

// DefaultUserSettings returns the factory default user bytes
func DefaultUserSettings() UserSettings {
	var s UserSettings
	for i := range s.Bytes {
		s.Bytes[i] = 0xFF
	}
	return s
}

// DecodeUserSettings copies up to UserSettingsSize payload bytes
func DecodeUserSettings(payload []byte) UserSettings {
	var s UserSettings
	copy(s.Bytes[:], payload)
	return s
}

// Payload returns the encoded user bytes
func (s UserSettings) Payload() []byte {
	return append([]byte(nil), s.Bytes[:]...)
}

func (s UserSettings) bit(index int, mask byte) bool {
	return s.Bytes[index]&mask != 0
}

func (s *UserSettings) setBit(index int, mask byte, on bool) {
	if on {
		s.Bytes[index] |= mask
	} else {
		s.Bytes[index] &^= mask
	}
}

// XBand reports whether X band detection is on
func (s UserSettings) XBand() bool { return s.bit(0, userXBand) }

// KBand reports whether K band detection is on
func (s UserSettings) KBand() bool { return s.bit(0, userKBand) }

// KaBand reports whether Ka band detection is on
func (s UserSettings) KaBand() bool { return s.bit(0, userKaBand) }

// Laser reports whether laser detection is on
func (s UserSettings) Laser() bool { return s.bit(0, userLaser) }

// MuteToMutedVolume reports whether muting drops to the muted volume rather than zero
func (s UserSettings) MuteToMutedVolume() bool { return s.bit(0, userMuteToMutedVol) }

// BogeyLockLoudAfterMute reports whether the bogey lock tone stays loud after muting
func (s UserSettings) BogeyLockLoudAfterMute() bool { return s.bit(0, userBogeyLockLoud) }

// MuteXKRear reports whether rear X and K alerts are muted
func (s UserSettings) MuteXKRear() bool { return !s.bit(0, userMuteXKRear) }

// KuBand reports whether Ku band detection is on. Ku is off by default.
func (s UserSettings) KuBand() bool { return !s.bit(0, userKuBand) }

// EuroMode reports whether euro mode is enabled
func (s UserSettings) EuroMode() bool { return !s.bit(1, userEuroMode) }

// EuroXBand reports whether X band is enabled while in euro mode
func (s UserSettings) EuroXBand() bool { return !s.bit(1, userEuroXBand) }

// Filter reports whether the K band filter is enabled
func (s UserSettings) Filter() bool { return !s.bit(1, userFilter) }

// ForceLegacyCD reports whether the concealed display is forced into legacy mode
func (s UserSettings) ForceLegacyCD() bool { return !s.bit(1, userForceLegacyCD) }

// CustomSweeps reports whether custom sweeps are in use
func (s UserSettings) CustomSweeps() bool { return !s.bit(1, userCustomSweeps) }

// SetXBand turns X band detection on or off
func (s *UserSettings) SetXBand(on bool) { s.setBit(0, userXBand, on) }

// SetKBand turns K band detection on or off
func (s *UserSettings) SetKBand(on bool) { s.setBit(0, userKBand, on) }

// SetKaBand turns Ka band detection on or off
func (s *UserSettings) SetKaBand(on bool) { s.setBit(0, userKaBand, on) }

// SetLaser turns laser detection on or off
func (s *UserSettings) SetLaser(on bool) { s.setBit(0, userLaser, on) }

// SetKuBand turns Ku band detection on or off
func (s *UserSettings) SetKuBand(on bool) { s.setBit(0, userKuBand, !on) }

// SetEuroMode enables or disables euro mode
func (s *UserSettings) SetEuroMode(on bool) { s.setBit(1, userEuroMode, !on) }

// SetFilter enables or disables the K band filter
func (s *UserSettings) SetFilter(on bool) { s.setBit(1, userFilter, !on) }

// SetCustomSweeps enables or disables custom sweeps
func (s *UserSettings) SetCustomSweeps(on bool) { s.setBit(1, userCustomSweeps, !on) }
