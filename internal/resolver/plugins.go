package resolver

import (
	"fmt"
	"strings"
)

// plugin describes one entry in the built-in plugin registry: the base
// name of its JAR, from which jarName computes the versioned JAR filename
// for a given Flink version. The literal names a cluster definition may
// use for it are the keys of pluginRegistry.
type plugin struct {
	jarBaseName string
}

func (p plugin) jarName(flinkVer string) string {
	return fmt.Sprintf("%s-%s.jar", p.jarBaseName, flinkVer)
}

// prestoS3Plugin and hadoopS3Plugin are the two plugin JARs the resolver
// auto-includes when it detects S3 paths or explicit S3 access settings.
var (
	prestoS3Plugin = plugin{jarBaseName: "flink-s3-fs-presto"}
	hadoopS3Plugin = plugin{jarBaseName: "flink-s3-fs-hadoop"}
)

// pluginRegistry maps the literal names a cluster definition may use for
// a built-in plugin to its registry entry. Names not present here are
// kept as-is.
var pluginRegistry = map[string]plugin{
	"s3":        prestoS3Plugin,
	"s3-presto": prestoS3Plugin,
	"presto-s3": prestoS3Plugin,
	"s3-hadoop": hadoopS3Plugin,
	"hadoop-s3": hadoopS3Plugin,
}

// normalizeBuiltInPlugins replaces each non-blank plugin name by its
// registry entry's versioned JAR filename if one matches, else keeps the
// literal; the result is deduplicated as a set while preserving
// first-seen order.
func normalizeBuiltInPlugins(names []string, flinkVer string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		resolved := name
		if p, ok := pluginRegistry[name]; ok {
			resolved = p.jarName(flinkVer)
		}
		if !seen[resolved] {
			seen[resolved] = true
			out = append(out, resolved)
		}
	}
	return out
}

// ensureJarPresent appends jarName to plugins if no entry already equals
// it, returning the (possibly unchanged) slice.
func ensureJarPresent(plugins []string, jarName string) []string {
	for _, p := range plugins {
		if p == jarName {
			return plugins
		}
	}
	return append(plugins, jarName)
}
