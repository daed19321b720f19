// Package limits provides centralized size constants and validation functions
// for the meshchat networking core.
//
// # Size Hierarchy
//
//   - HeaderSize (8 bytes): the package envelope header carrying the package id.
//
//   - DefaultBufferSize (2048 bytes): the capacity handed out by the buffer pool
//     when the caller does not ask for a specific size.
//
//   - MaxPackageSize (1MB): the absolute maximum for any packed package. Anything
//     larger is rejected before decoding is attempted.
//
// # Validation Functions
//
//	err := limits.ValidatePackageSize(data)
//	if err != nil {
//	    // ErrPackageEmpty or ErrPackageTooLarge
//	}
//
// Pool configuration is checked with ValidatePoolSize and ValidateBufferSize,
// both of which return ErrOutOfRange wrapped with the offending value.
package limits
