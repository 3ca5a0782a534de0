// Package blob is the artifact storage facade. Callers depend on Store and
// pick a backend through Open; only this package imports the infra drivers.
package blob

import "variantcore/internal/blob/core"

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrNotFound is returned for unknown keys.
	ErrNotFound = core.ErrNotFound
	// ErrExists is returned when writing an existing key.
	ErrExists = core.ErrExists
)
