package lis3dsh

// Register map and wire-protocol constants, externally defined by the
// LIS3DSH datasheet, named in the REG_* convention
// services/hal/internal/devices/ltc4015/registers.go uses for its own
// chip's registers, adapted to this device.
const (
	regCTRL4 byte = 0x20
	regOutXL byte = 0x28 // OUT_X_L; OUT_X_H..OUT_Z_H follow at +1..+5

	readBit byte = 0x80 // OR'd into the address byte to select a read

	// ctrl4Default is the driver's desired CTRL4 value: bits 7:4 = 0110
	// (ODR code 6, 100 Hz), bit 3 = 0 (block-data-update off), bits 2:0 =
	// 111 (Z, Y, X all enabled).
	ctrl4Default byte = 0x6 << 4 |
		0<<3 |
		1<<2 | 1<<1 | 1<<0
)
