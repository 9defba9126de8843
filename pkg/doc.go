// Package pkg provides the libraries behind stackrecipe.
//
// # Overview
//
// Stackrecipe loads two kinds of configuration descriptors for a C/C++
// project and refuses anything it does not recognize:
//
//   - style settings for a CMake listfile formatter ([style])
//   - dependency recipes whose requirement lists vary by platform ([recipe])
//
// A recipe is resolved for one platform ([platform]) by [resolve], which
// produces a lock handed to the external dependency resolver.
//
// # Architecture
//
//	recipe.hcl / *.recipe.toml        style.toml / .cmake-format.yaml
//	         ↓                                   ↓
//	    [recipe] (parse + validate)         [style] (schema check)
//	         ↓
//	    [resolve] (platform rules → ordered requirements → lock)
//	         ↓
//	    [pipeline] (cache) → [store] (persist locks)
//
// Directories holding many recipes go through [workspace], which builds a
// requirement graph ([dag]) for build ordering, rendering ([render]) and
// JSON export ([io]).
//
// Supporting packages: [errors] (coded errors), [cache] (file, LRU and
// Redis backends), [config] (environment), [observability] (hooks) and
// [buildinfo].
package pkg
