/*
Copyright 2025 The Flux authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package artifact processes game assemblies into redistributable artifacts.
//
// It includes:
//
// Configuration (config pkg):
//   - Flag binding with environment variable support for all pipeline options
//   - Optional YAML file with the artifact list and the search locations
//   - Validation of the version, the digest algorithm and the artifact names
//
// Source Location (locator pkg):
//   - Explicit source directory or ordered probing of the Steam libraries
//   - Required managed subdirectory check
//
// Transformation (transform pkg):
//   - Publicizer tool resolution, with a one time install when missing
//   - Pass-through fallback to the original assembly when the tool fails
//
// Digest Computation (digest pkg):
//   - Content fingerprints with SHA256, SHA384 or SHA512
//
// Change Tracking (ledger pkg):
//   - JSON ledger of the published digests, with comparison against the current run
//
// Storage Management (storage pkg):
//   - Atomic writes of the published assemblies
//   - Temporary workspace and run lock
package artifact
