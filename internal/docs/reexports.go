package docs

import "strings"

// Reexport represents a pub use that re-exports an item under a different path.
type Reexport struct {
	LocalPrefix  string `json:"local_prefix"`  // Path as seen from the re-exporting crate
	SourceCrate  string `json:"source_crate"`  // Crate that defines the item
	SourcePrefix string `json:"source_prefix"` // Path in the source crate
	Glob         bool   `json:"glob,omitempty"`
	Resolvable   bool   `json:"resolvable"` // the target is in the index, so its docs can be extracted
}

// CollectReexports walks the crate's module tree and returns all re-export mappings.
func CollectReexports(g *Graph) []Reexport {
	var reexports []Reexport
	walkModuleReexports(g.Root, g.CrateName, g, map[ItemID]bool{}, &reexports)
	return reexports
}

func walkModuleReexports(moduleID ItemID, modulePath string, g *Graph, visited map[ItemID]bool, reexports *[]Reexport) {
	if visited[moduleID] {
		return
	}
	visited[moduleID] = true

	module, ok := g.Item(moduleID)
	if !ok {
		return
	}

	for _, childID := range module.Children {
		child, ok := g.Item(childID)
		if !ok {
			continue
		}

		if child.Kind == KindModule {
			walkModuleReexports(childID, modulePath+PathSeparator+child.Name, g, visited, reexports)
			continue
		}

		if child.Kind != KindUse || child.Target == "" {
			continue
		}

		targetSummary, ok := g.Summary(child.Target)
		if !ok {
			continue
		}

		sourcePath := strings.Join(targetSummary.Path, PathSeparator)
		var sourceCrate string

		if targetSummary.CrateID == 0 {
			sourceCrate = g.CrateName
		} else {
			sourceCrate = g.ExternalCrateName(targetSummary.CrateID)
			if sourceCrate == "" {
				continue
			}
		}

		_, resolvable := g.Item(child.Target)

		if child.Glob {
			if modulePath == sourcePath && sourceCrate == g.CrateName {
				continue // glob from self, nothing to remap
			}
			*reexports = append(*reexports, Reexport{
				LocalPrefix:  modulePath,
				SourceCrate:  sourceCrate,
				SourcePrefix: sourcePath,
				Glob:         true,
				Resolvable:   resolvable,
			})
		} else {
			localPath := modulePath + PathSeparator + child.Name
			if localPath == sourcePath && sourceCrate == g.CrateName {
				continue // not a real re-export
			}
			*reexports = append(*reexports, Reexport{
				LocalPrefix:  localPath,
				SourceCrate:  sourceCrate,
				SourcePrefix: sourcePath,
				Resolvable:   resolvable,
			})
		}
	}
}
