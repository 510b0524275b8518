// Package flash defines the driver contract for raw NOR/EEPROM-style flash
// devices as consumed by the rest of the library. It abstracts the two driver
// shapes encountered in practice and the geometry information the map engine
// and the region resolver need to validate their address math.
//
// The package focuses on:
//   - A suspendable Driver interface (context-aware read/erase/write)
//   - A BlockingDriver interface for drivers without genuine concurrent I/O
//   - Device geometry reporting (page size, write alignment, total size)
//   - A structured Error type that preserves the failing operation and address
//
// Key Components:
//
//   - Driver Interface: The contract the map engine programs against. All
//     addresses are device-relative. Implementations must honor the NOR
//     constraint that a byte can only be programmed after the page containing
//     it has been erased.
//
//   - BlockingDriver Interface: The same operations without a context
//     parameter. Real hardware drivers on the intended device class are
//     blocking; the bridge subpackage adapts them to the Driver interface.
//
//   - Geometry: Describes the erase granule (page size), the write alignment
//     the device requires, and the total device size. The region resolver
//     validates placement against it once at boot.
//
// Implementations:
//
//   - memflash: an in-memory device with strict NOR semantics, used by the
//     test suites and the simulator.
//   - fileflash: the same semantics backed by an image file so simulator
//     state survives restarts.
package flash
