// Package plugins hosts plugin implementation subpackages. Plugins depend on
// the internal/core surface only; the architecture test alongside this file
// keeps them away from pkg/domain.
package plugins
