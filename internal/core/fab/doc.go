// Package fab attaches transformation pipelines to scene assets.
//
// A Prefab pipeline runs once against a template when it finishes loading and
// mutates the shared template. A Postfab pipeline runs against every spawned
// instance once the instance has materialized, matching each step against the
// instance root and, unless the step is root-only, its descendants.
//
// Pipelines may be registered against a container asset (a bundle embedding
// scenes); the engine re-keys them under the bundle's first scene once the
// bundle has loaded. Every phase runs inside Engine.Tick in a fixed order:
// reconcile, prefab, container spawns, tag, postfab.
package fab
